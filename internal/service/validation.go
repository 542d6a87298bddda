package service

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"busbuddy/internal/model"
	pkgerrors "busbuddy/pkg/errors"
)

// 北美电话格式：可选 +1，区号可带括号，分隔符为 - . 或空格
var phonePattern = regexp.MustCompile(`^(\+?1[-.\s]?)?(\(\d{3}\)|\d{3})[-.\s]?\d{3}[-.\s]?\d{4}$`)

// NewValidator 创建带自定义标签的校验器
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators 注册自定义标签（gin 的 binding 引擎也复用这一组）
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("phone", isPhone)
}

func isPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

// problems 累积一次请求的全部校验问题
type problems []string

func (p *problems) add(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// addStruct 校验结构体标签；messages 以 "字段.标签" 为键给出面向用户的文案
func (p *problems) addStruct(v *validator.Validate, s interface{}, messages map[string]string) {
	err := v.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		p.add("%v", err)
		return
	}
	for _, fe := range fieldErrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			*p = append(*p, msg)
			continue
		}
		p.add("%s is invalid", fe.Field())
	}
}

// date 解析必填日期
func (p *problems) date(label, s string) model.Date {
	if s == "" {
		p.add("%s is required", label)
		return model.Date{}
	}
	d, err := model.ParseDate(s)
	if err != nil {
		p.add("%s must be in YYYY-MM-DD format", label)
	}
	return d
}

// optionalDate 解析可选日期，空串返回 nil
func (p *problems) optionalDate(label, s string) *model.Date {
	if s == "" {
		return nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		p.add("%s must be in YYYY-MM-DD format", label)
		return nil
	}
	return &d
}

// timeOfDay 解析必填时刻
func (p *problems) timeOfDay(label, s string) model.TimeOfDay {
	if s == "" {
		p.add("%s is required", label)
		return model.TimeOfDay(-1)
	}
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		p.add("%s must be in HH:MM format", label)
		return model.TimeOfDay(-1)
	}
	return t
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return pkgerrors.NewValidation(p...)
}

// timeRange 解析起止时刻；格式正确时再校验先后。leg 非空时作为文案前缀（线路的 AM / PM 段）
func (p *problems) timeRange(leg, start, end string) (model.TimeOfDay, model.TimeOfDay) {
	startLabel, endLabel := "Start time", "End time"
	if leg != "" {
		startLabel, endLabel = leg+" start time", leg+" end time"
	}
	n := len(*p)
	s := p.timeOfDay(startLabel, start)
	e := p.timeOfDay(endLabel, end)
	if len(*p) == n && s >= e {
		p.add("%s must be before end time", startLabel)
	}
	return s, e
}
