package models

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&Asset{},
		&User{},
		&Session{},
		&Page{},
		&Section{},
		&Analytic{},
	}
}
