package model

import "fmt"

// Address адрес практики врача
type Address struct {
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         string  `json:"city"`
	State        *string `json:"state,omitempty"`
	Postcode     *string `json:"postcode,omitempty"`
}

// Doctor врач в том виде, в котором его отдаёт API (только чтение)
type Doctor struct {
	ID              string   `json:"id"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Speciality      string   `json:"speciality"`
	TotalYearsOfExp *int     `json:"totalYearsOfExp,omitempty"`
	Rating          float64  `json:"rating"` // 0-5, шаг 0.5
	Address         *Address `json:"address,omitempty"`
	DOB             *string  `json:"dob,omitempty"`
	EmailID         *string  `json:"emailId,omitempty"`
	Mobile          *string  `json:"mobile,omitempty"`
}

// FullName возвращает "Имя Фамилия"
func (d *Doctor) FullName() string {
	return fmt.Sprintf("%s %s", d.FirstName, d.LastName)
}

// City возвращает город или пустую строку
func (d *Doctor) City() string {
	if d.Address == nil {
		return ""
	}
	return d.Address.City
}
