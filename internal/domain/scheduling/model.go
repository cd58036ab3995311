package scheduling

import "time"

type Status string

const (
	StatusActive    Status = "Active"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

type RecurrenceType string

const (
	Daily   RecurrenceType = "daily"
	Weekly  RecurrenceType = "weekly"
	Monthly RecurrenceType = "monthly"
)

// Pattern expands one booking into dated instances up to EndDate.
type Pattern struct {
	Type     RecurrenceType `json:"type" bson:"type"`
	Interval int            `json:"interval" bson:"interval"`
	EndDate  string         `json:"endDate" bson:"endDate"`
}

// Schedule books a room and a doctor for a same-day time range. Dates are
// YYYY-MM-DD and times HH:MM, both local wall clock. Room number, doctor
// name and department name are display copies and may go stale.
type Schedule struct {
	ScheduleID       string     `db:"schedule_id" json:"scheduleId" bson:"scheduleId"`
	RoomID           string     `db:"room_id" json:"roomId" bson:"roomId"`
	RoomNumber       string     `db:"room_number" json:"roomNumber" bson:"roomNumber"`
	DoctorID         string     `db:"doctor_id" json:"doctorId" bson:"doctorId"`
	DoctorName       string     `db:"doctor_name" json:"doctorName" bson:"doctorName"`
	DepartmentID     string     `db:"department_id" json:"departmentId" bson:"departmentId"`
	DepartmentName   string     `db:"department_name" json:"departmentName" bson:"departmentName"`
	Date             string     `db:"date" json:"date" bson:"date"`
	StartTime        string     `db:"start_time" json:"startTime" bson:"startTime"`
	EndTime          string     `db:"end_time" json:"endTime" bson:"endTime"`
	IsRecurring      bool       `db:"is_recurring" json:"isRecurring" bson:"isRecurring"`
	RecurringPattern *Pattern   `db:"-" json:"recurringPattern" bson:"recurringPattern"`
	ParentScheduleID *string    `db:"parent_schedule_id" json:"parentScheduleId,omitempty" bson:"parentScheduleId,omitempty"`
	Status           Status     `db:"status" json:"status" bson:"status"`
	Notes            string     `db:"notes" json:"notes" bson:"notes"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
	CancelledAt      *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
}

// Overlaps reports whether s and the half-open range [start, end) intersect
// on the same room and date. Touching ranges do not overlap.
func (s *Schedule) Overlaps(roomID, date, start, end string) bool {
	return s.RoomID == roomID && s.Date == date && s.StartTime < end && s.EndTime > start
}

type CreateInput struct {
	RoomID           string   `json:"roomId"`
	RoomNumber       string   `json:"roomNumber"`
	DoctorID         string   `json:"doctorId"`
	DoctorName       string   `json:"doctorName"`
	DepartmentID     string   `json:"departmentId"`
	DepartmentName   string   `json:"departmentName"`
	Date             string   `json:"date"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	IsRecurring      bool     `json:"isRecurring"`
	RecurringPattern *Pattern `json:"recurringPattern"`
	Notes            string   `json:"notes"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	ScheduleID string  `json:"scheduleId"`
	StartTime  *string `json:"startTime"`
	EndTime    *string `json:"endTime"`
	Notes      *string `json:"notes"`
	Status     *Status `json:"status"`
}

type ReassignInput struct {
	ScheduleID    string  `json:"scheduleId"`
	NewDoctorID   string  `json:"newDoctorId"`
	NewDoctorName string  `json:"newDoctorName"`
	Notes         *string `json:"notes"`
}

// Filter narrows ListSchedules. Week is ISO "YYYY-WW" and takes precedence
// over Date. DateFrom and DateTo are derived from Week by the service.
type Filter struct {
	ScheduleID string
	RoomID     string
	DoctorID   string
	Date       string
	Week       string
	Status     Status
	DateFrom   string
	DateTo     string
}

// CreateResult is the base booking and the instances its pattern expanded to.
type CreateResult struct {
	Schedule  *Schedule   `json:"schedule"`
	Instances []*Schedule `json:"instances"`
}
