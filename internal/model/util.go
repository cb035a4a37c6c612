package model

import "strconv"

// MigrateAble is array of model instance, use for migrating database
var MigrateAble []interface{}

func init() {
	MigrateAble = append(
		MigrateAble,
		&Account{},
		&ApplicantProfile{},
		&CompanyProfile{},
		&StaffProfile{},
		&AdminProfile{},
		&Resume{},
		&Job{},
		&SavedJob{},
		&Application{},
		&Notification{},
		&Chat{},
		&ChatMessage{},
	)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
