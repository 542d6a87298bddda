package repository

import (
	"reflect"

	"busbuddy/internal/model"
)

type changeOp int

const (
	opInsert changeOp = iota
	opUpdate
	opDelete
)

func (o changeOp) String() string {
	switch o {
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	default:
		return "delete"
	}
}

// change 一条待提交的变更
type change struct {
	op     changeOp
	entity model.Entity
	name   string
}

// tracker 暂存变更 + 身份映射。同一工作单元内按主键加载的实体始终是同一个指针。
type tracker struct {
	changes  []change
	identity map[reflect.Type]map[uint]any
}

func newTracker() *tracker {
	return &tracker{identity: make(map[reflect.Type]map[uint]any)}
}

func (t *tracker) indexOf(e model.Entity) int {
	for i, c := range t.changes {
		if c.entity == e {
			return i
		}
	}
	return -1
}

// stage 合并同一实体的重复变更：
// 已待插入的实体再 Update 仍是插入；待插入的实体被 Remove 直接撤销；待更新的实体被 Remove 改为删除。
func (t *tracker) stage(op changeOp, e model.Entity, name string) {
	i := t.indexOf(e)
	if i < 0 {
		t.changes = append(t.changes, change{op: op, entity: e, name: name})
		return
	}

	switch prev := t.changes[i].op; {
	case op == opDelete && prev == opInsert:
		t.changes = append(t.changes[:i], t.changes[i+1:]...)
	case op == opDelete:
		t.changes[i].op = opDelete
	}
}

func (t *tracker) isStaged(e model.Entity, op changeOp) bool {
	i := t.indexOf(e)
	return i >= 0 && t.changes[i].op == op
}

func (t *tracker) reset() {
	t.changes = nil
}

func (t *tracker) counts() map[changeOp]int {
	out := make(map[changeOp]int, 3)
	for _, c := range t.changes {
		out[c.op]++
	}
	return out
}

func (t *tracker) bucket(typ reflect.Type) map[uint]any {
	b, ok := t.identity[typ]
	if !ok {
		b = make(map[uint]any)
		t.identity[typ] = b
	}
	return b
}

// attach 登记实体；已登记同主键实体时返回已有指针
func (t *tracker) attach(e model.Entity) model.Entity {
	id := e.GetID()
	if id == 0 {
		return e
	}
	b := t.bucket(reflect.TypeOf(e))
	if existing, ok := b[id]; ok {
		return existing.(model.Entity)
	}
	b[id] = e
	return e
}

func (t *tracker) detach(e model.Entity) {
	if b, ok := t.identity[reflect.TypeOf(e)]; ok {
		delete(b, e.GetID())
	}
}

func attachAll[T any](t *tracker, rows []*T) []*T {
	for i, row := range rows {
		rows[i] = any(t.attach(any(row).(model.Entity))).(*T)
	}
	return rows
}
