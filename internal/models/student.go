package models

type Student struct {
	ID            int    `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DOB           string `json:"dob,omitempty"`
	Citizenship   string `json:"citizenship,omitempty"`
	IntendedMajor string `json:"intended_major,omitempty"`
	EntrySemester string `json:"entry_semester,omitempty"`
	EntryYear     *int   `json:"entry_year,omitempty"`
	AssignedDate  string `json:"assigned_date"`
	Tasks         []Task `json:"tasks,omitempty"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// NewStudent поля формы добавления студента (необязательные - пустые строки)
type NewStudent struct {
	FirstName     string
	LastName      string
	DOB           string
	Citizenship   string
	IntendedMajor string
	EntrySemester string
	EntryYear     *int
	AssignedDate  string
}
