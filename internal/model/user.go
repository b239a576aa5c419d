package model

// User текущий пользователь (ответ getCurrentUser)
type User struct {
	EmailID   string  `json:"emailId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Mobile    *string `json:"mobile,omitempty"`
	DOB       *string `json:"dob,omitempty"`
}
