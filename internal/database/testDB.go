package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded accounts, profiles and jobs for tests
var (
	TestAccountApplicant1 m.Account
	TestAccountApplicant2 m.Account
	TestAccountCompany1   m.Account
	TestAccountCompany2   m.Account
	TestAccountHR1        m.Account
	TestAccountHR2        m.Account
	TestAccountIvw1       m.Account

	TestApplicant1 m.ApplicantProfile
	TestApplicant2 m.ApplicantProfile
	TestCompany1   m.CompanyProfile
	TestCompany2   m.CompanyProfile
	// TestHR1 and TestIvw1 belong to TestCompany1, TestHR2 to TestCompany2
	TestHR1  m.StaffProfile
	TestHR2  m.StaffProfile
	TestIvw1 m.StaffProfile

	TestResume1 m.Resume
	TestResume2 m.Resume

	TestJob1 m.Job
	TestJob2 m.Job

	// TestSeedPassword is the plain password shared by all seeded accounts
	TestSeedPassword = "SeedPass123!"
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample accounts, role profiles, resumes and job
// postings if the database is empty.
func seedTestData(db *DBinstanceStruct) error {
	var accountCount int64
	if err := db.Model(&m.Account{}).Count(&accountCount).Error; err != nil {
		return err
	}

	// Ignore admin account that may get created during NewDBInstance
	if accountCount > 1 {
		return loadTestData(db)
	}

	hashed, err := utilities.HashPassword(TestSeedPassword)
	if err != nil {
		return err
	}

	newAccount := func(email, role string) (m.Account, error) {
		acc := m.Account{Email: email, Password: hashed, Role: role, Verified: true}
		err := db.Create(&acc).Error
		return acc, err
	}

	if TestAccountApplicant1, err = newAccount("applicant1@mail.test", m.RoleApplicant); err != nil {
		return err
	}
	if TestAccountApplicant2, err = newAccount("applicant2@mail.test", m.RoleApplicant); err != nil {
		return err
	}
	if TestAccountCompany1, err = newAccount("owner@acme.test", m.RoleCompany); err != nil {
		return err
	}
	if TestAccountCompany2, err = newAccount("owner@globex.test", m.RoleCompany); err != nil {
		return err
	}
	if TestAccountHR1, err = newAccount("hr1@acme.test", m.RoleStaff); err != nil {
		return err
	}
	if TestAccountIvw1, err = newAccount("ivw1@acme.test", m.RoleStaff); err != nil {
		return err
	}
	if TestAccountHR2, err = newAccount("hr2@globex.test", m.RoleStaff); err != nil {
		return err
	}

	TestApplicant1 = m.ApplicantProfile{AccountID: TestAccountApplicant1.ID, FirstName: "April", LastName: "One", Skills: []string{"go", "sql"}}
	if err := db.Create(&TestApplicant1).Error; err != nil {
		return err
	}
	TestApplicant2 = m.ApplicantProfile{AccountID: TestAccountApplicant2.ID, FirstName: "Ben", LastName: "Two"}
	if err := db.Create(&TestApplicant2).Error; err != nil {
		return err
	}

	TestCompany1 = m.CompanyProfile{AccountID: TestAccountCompany1.ID, Name: "Acme Corp", EmailDomain: "acme.test", VerifiedStatus: m.CompanyStatusVerified}
	if err := db.Create(&TestCompany1).Error; err != nil {
		return err
	}
	TestCompany2 = m.CompanyProfile{AccountID: TestAccountCompany2.ID, Name: "Globex", EmailDomain: "globex.test", VerifiedStatus: m.CompanyStatusVerified}
	if err := db.Create(&TestCompany2).Error; err != nil {
		return err
	}

	TestHR1 = m.StaffProfile{AccountID: TestAccountHR1.ID, CompanyID: TestCompany1.ID, FirstName: "Hana", Position: m.StaffPositionHR, Active: true}
	if err := db.Create(&TestHR1).Error; err != nil {
		return err
	}
	TestIvw1 = m.StaffProfile{AccountID: TestAccountIvw1.ID, CompanyID: TestCompany1.ID, FirstName: "Ivan", Position: m.StaffPositionInterviewer, Active: true}
	if err := db.Create(&TestIvw1).Error; err != nil {
		return err
	}
	TestHR2 = m.StaffProfile{AccountID: TestAccountHR2.ID, CompanyID: TestCompany2.ID, FirstName: "Hugo", Position: m.StaffPositionHR, Active: true}
	if err := db.Create(&TestHR2).Error; err != nil {
		return err
	}

	TestResume1 = m.Resume{ApplicantID: TestApplicant1.ID, FileName: "resume1", Content: []byte("resume one"), Extension: ".pdf"}
	if err := db.Create(&TestResume1).Error; err != nil {
		return err
	}
	TestResume2 = m.Resume{ApplicantID: TestApplicant2.ID, FileName: "resume2", Content: []byte("resume two"), Extension: ".pdf"}
	if err := db.Create(&TestResume2).Error; err != nil {
		return err
	}

	TestJob1 = m.Job{
		CompanyID:   TestCompany1.ID,
		ContacterID: TestHR1.ID,
		Status:      m.JobStatusActive,
		EditableJobInfo: m.EditableJobInfo{
			Title:     "Backend Engineer",
			Desc:      "Build the backend",
			Location:  "Remote",
			Type:      "full-time",
			Category:  "engineering",
			Skills:    []string{"go", "postgres"},
			SalaryMin: 60000,
			SalaryMax: 90000,
			Currency:  "USD",
		},
	}
	if err := db.Create(&TestJob1).Error; err != nil {
		return err
	}
	TestJob2 = m.Job{
		CompanyID:   TestCompany2.ID,
		ContacterID: TestHR2.ID,
		Status:      m.JobStatusActive,
		EditableJobInfo: m.EditableJobInfo{
			Title:    "Data Analyst",
			Desc:     "Analyze the data",
			Location: "Berlin",
			Type:     "full-time",
			Category: "data",
		},
	}
	if err := db.Create(&TestJob2).Error; err != nil {
		return err
	}

	return nil
}

// loadTestData reloads the seeded rows into the exported variables when the
// container is reused across test packages.
func loadTestData(db *DBinstanceStruct) error {
	loadAccount := func(dst *m.Account, email string) error {
		return db.Where("email = ?", email).First(dst).Error
	}
	for dst, email := range map[*m.Account]string{
		&TestAccountApplicant1: "applicant1@mail.test",
		&TestAccountApplicant2: "applicant2@mail.test",
		&TestAccountCompany1:   "owner@acme.test",
		&TestAccountCompany2:   "owner@globex.test",
		&TestAccountHR1:        "hr1@acme.test",
		&TestAccountHR2:        "hr2@globex.test",
		&TestAccountIvw1:       "ivw1@acme.test",
	} {
		if err := loadAccount(dst, email); err != nil {
			return err
		}
	}

	if err := db.Where("account_id = ?", TestAccountApplicant1.ID).First(&TestApplicant1).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountApplicant2.ID).First(&TestApplicant2).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountCompany1.ID).First(&TestCompany1).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountCompany2.ID).First(&TestCompany2).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountHR1.ID).First(&TestHR1).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountHR2.ID).First(&TestHR2).Error; err != nil {
		return err
	}
	if err := db.Where("account_id = ?", TestAccountIvw1.ID).First(&TestIvw1).Error; err != nil {
		return err
	}
	if err := db.Where("applicant_id = ?", TestApplicant1.ID).First(&TestResume1).Error; err != nil {
		return err
	}
	if err := db.Where("applicant_id = ?", TestApplicant2.ID).First(&TestResume2).Error; err != nil {
		return err
	}
	if err := db.Where("company_id = ?", TestCompany1.ID).First(&TestJob1).Error; err != nil {
		return err
	}
	if err := db.Where("company_id = ?", TestCompany2.ID).First(&TestJob2).Error; err != nil {
		return err
	}
	return nil
}
