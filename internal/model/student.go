package model

// Student 学生，对应 students
type Student struct {
	SoftDeleteEntity
	Name           string `gorm:"type:varchar(100);not null" json:"name"`
	StudentNumber  string `gorm:"type:varchar(20)"           json:"student_number"`
	Grade          string `gorm:"type:varchar(10)"           json:"grade"`
	School         string `gorm:"type:varchar(100)"          json:"school"`
	HomeAddress    string `gorm:"type:varchar(255)"          json:"home_address"`
	HomePhone      string `gorm:"type:varchar(20)"           json:"home_phone"`
	ParentGuardian string `gorm:"type:varchar(100)"          json:"parent_guardian"`
	EmergencyPhone string `gorm:"type:varchar(20)"           json:"emergency_phone"`
	RouteID        *uint  `gorm:"index"                      json:"route_id,omitempty"`
	Active         bool   `gorm:"not null"                   json:"active"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
