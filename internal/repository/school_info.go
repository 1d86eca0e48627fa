package repository

import (
	"reflect"
	"strconv"
)

// SchoolInfo is the editable "about us" document of the site.
type SchoolInfo struct {
	Name        string `json:"name" validate:"required,max=120"`
	Motto       string `json:"motto,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Website     string `json:"website,omitempty" validate:"omitempty,url"`
	Mission     string `json:"mission,omitempty"`
	Vision      string `json:"vision,omitempty"`
	FoundedYear int    `json:"foundedYear,omitempty" validate:"omitempty,min=1800,max=2100"`
	LastUpdate  int64  `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// InfoField is one displayable line of the school information.
type InfoField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// DisplayFields lists the non-empty fields in page order.
func (s SchoolInfo) DisplayFields() []InfoField {
	founded := ""
	if s.FoundedYear > 0 {
		founded = strconv.Itoa(s.FoundedYear)
	}
	all := []InfoField{
		{Key: "name", Label: "Nombre", Value: s.Name},
		{Key: "motto", Label: "Lema", Value: s.Motto},
		{Key: "address", Label: "Dirección", Value: s.Address},
		{Key: "phone", Label: "Teléfono", Value: s.Phone},
		{Key: "email", Label: "Correo", Value: s.Email},
		{Key: "website", Label: "Sitio web", Value: s.Website},
		{Key: "mission", Label: "Misión", Value: s.Mission},
		{Key: "vision", Label: "Visión", Value: s.Vision},
		{Key: "foundedYear", Label: "Fundado", Value: founded},
	}
	out := make([]InfoField, 0, len(all))
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// SameContent compares two documents ignoring LastUpdate.
func SameContent(a, b *SchoolInfo) bool {
	if a == nil || b == nil {
		return a == b
	}
	ac, bc := *a, *b
	ac.LastUpdate, bc.LastUpdate = 0, 0
	return reflect.DeepEqual(ac, bc)
}

// InfoStore is the in-memory side the watcher reloads into.
type InfoStore interface {
	GetLastUpdate() int64
	Snapshot() SchoolInfo
	Replace(info SchoolInfo)
}
