// Package application implements the application lifecycle: submission
// with duplicate prevention, status transitions, interviewer assignment,
// withdrawal, and role-scoped listing.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/authz"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/notify"
)

var (
	// ErrJobNotFound means the target job posting does not exist
	ErrJobNotFound = errors.New("job post not found")
	// ErrJobClosed means the posting no longer accepts applications
	ErrJobClosed = errors.New("job post is not accepting applications")
	// ErrInvalidResume means the resume does not exist or is not owned by the applicant
	ErrInvalidResume = errors.New("invalid resume")
	// ErrDuplicateApplication means the applicant already applied to this job
	ErrDuplicateApplication = errors.New("already applied to this job post")
	// ErrApplicationNotFound means the application does not exist or is out of scope
	ErrApplicationNotFound = errors.New("application not found")
	// ErrInvalidStatus means the requested status is not a member of the closed set
	ErrInvalidStatus = errors.New("invalid application status")
	// ErrInvalidInterviewer means the interviewer is not an eligible staff member
	ErrInvalidInterviewer = errors.New("invalid interviewer")
	// ErrForbidden means the actor may not perform this operation
	ErrForbidden = errors.New("forbidden")
)

const (
	// uniqueViolation is the postgres error code raised by the compound
	// (job_id, applicant_id) index under a concurrent duplicate submit.
	uniqueViolation = "23505"
	// serializationFailure and deadlockDetected are the write-conflict
	// codes worth retrying once.
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// transientErr reports whether a persistence failure is worth one retry.
// Write conflicts and non-postgres driver errors are transient; every
// other postgres error is permanent.
func transientErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
	}
	return true
}

// runWithRetry runs fn and retries it once when the failure is transient.
func runWithRetry(op string, fn func() error) error {
	err := fn()
	if err == nil || !transientErr(err) {
		return err
	}
	log.Printf("application: transient %s failure, retrying once: %v", op, err)
	return fn()
}

// Engine is the application lifecycle state machine. All mutations go
// through it; notification fan-out is a side effect and never fails a
// mutation that already committed.
type Engine struct {
	DB     *database.DBinstanceStruct
	Fanout *notify.Fanout
}

// NewEngine creates a new Engine with the provided database connection and fan-out.
func NewEngine(db *database.DBinstanceStruct, fanout *notify.Fanout) *Engine {
	return &Engine{DB: db, Fanout: fanout}
}

// Filters narrow a scoped application listing.
type Filters struct {
	Status string
	JobID  uint
	Limit  int
	Offset int
}

// Submit creates a new pending application for the identity's applicant
// profile. The HR contact and company are copied from the job, the job's
// application counter is incremented atomically, and a notification is
// fanned out to the HR contact.
func (e *Engine) Submit(ctx context.Context, id identity.Identity, jobID uint, resumeID int) (*model.Application, error) {

	var job model.Job
	if err := e.DB.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.Status != model.JobStatusActive {
		return nil, ErrJobClosed
	}

	var resume model.Resume
	if err := e.DB.WithContext(ctx).Where("id = ?", resumeID).First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResume
		}
		return nil, err
	}
	if !resume.BelongsTo(id.ProfileID) {
		return nil, ErrInvalidResume
	}

	// Friendly fast path; the compound unique index is the authority
	// under concurrent submits.
	var existing model.Application
	err := e.DB.WithContext(ctx).
		Where("job_id = ? AND applicant_id = ?", jobID, id.ProfileID).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateApplication
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	app := model.Application{
		JobID:       job.ID,
		ApplicantID: id.ProfileID,
		HRID:        job.ContacterID,
		CompanyID:   job.CompanyID,
		ResumeID:    resume.ID,
		Status:      model.ApplicationStatusPending,
	}

	if err := runWithRetry("create", func() error {
		return e.DB.WithContext(ctx).Create(&app).Error
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}

	if err := e.DB.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", job.ID).
		UpdateColumn("application_count", gorm.Expr("application_count + ?", 1)).Error; err != nil {
		// The application row is committed; the counter is denormalized
		log.Printf("application: failed to increment counter for job %d: %v", job.ID, err)
	}

	e.emitSubmitted(ctx, &app, &job)

	return &app, nil
}

// Transition moves an application to newStatus. The actor must be staff or
// company scoped to the application's company (or admin). Moving into
// interview requires an eligible interviewer of the same company. The prior
// status is not restricted beyond membership in the closed set.
func (e *Engine) Transition(ctx context.Context, id identity.Identity, appID uint, newStatus string, interviewerID *uuid.UUID) (*model.Application, error) {

	if !model.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	var app model.Application
	if err := e.DB.WithContext(ctx).Where("id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	if !authz.CanTouchApplication(id, &app) {
		return nil, ErrForbidden
	}

	prevStatus := app.Status
	interviewerAssigned := false
	var interviewer model.StaffProfile

	if newStatus == model.ApplicationStatusInterview {
		if interviewerID == nil {
			return nil, fmt.Errorf("%w: interviewer_id is required for interview", ErrInvalidInterviewer)
		}
		if err := e.DB.WithContext(ctx).Where("id = ?", *interviewerID).First(&interviewer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidInterviewer
			}
			return nil, err
		}
		if interviewer.CompanyID != app.CompanyID || !interviewer.Active ||
			(interviewer.Position != model.StaffPositionHR && interviewer.Position != model.StaffPositionInterviewer) {
			return nil, ErrInvalidInterviewer
		}
		interviewerAssigned = app.InterviewerID == nil || *app.InterviewerID != interviewer.ID
		app.InterviewerID = &interviewer.ID
	}

	app.Status = newStatus
	updates := map[string]interface{}{"status": newStatus}
	if newStatus == model.ApplicationStatusInterview {
		updates["interviewer_id"] = app.InterviewerID
	}
	if err := runWithRetry("update", func() error {
		return e.DB.WithContext(ctx).Model(&app).Updates(updates).Error
	}); err != nil {
		return nil, err
	}

	e.emitStatusChanged(ctx, &app, prevStatus, interviewerAssigned, interviewer.AccountID)

	return &app, nil
}

// Withdraw deletes the identity's own application. The job's denormalized
// application counter is left as is.
func (e *Engine) Withdraw(ctx context.Context, id identity.Identity, appID uint) error {

	var app model.Application
	if err := e.DB.WithContext(ctx).Where("id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return err
	}

	if id.Role != model.RoleApplicant || app.ApplicantID != id.ProfileID {
		return ErrForbidden
	}

	return runWithRetry("delete", func() error {
		return e.DB.WithContext(ctx).Delete(&app).Error
	})
}

// List returns the applications visible to the identity, intersected with
// the caller-supplied filters, newest first.
func (e *Engine) List(ctx context.Context, id identity.Identity, f Filters) ([]model.Application, error) {

	q := e.DB.WithContext(ctx).Where(authz.ApplicationScope(id))

	if f.Status != "" {
		if !model.ValidStatus(f.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.JobID != 0 {
		q = q.Where("job_id = ?", f.JobID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var apps []model.Application
	if err := q.Order("applied_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Get returns one application when it falls inside the identity's scope.
func (e *Engine) Get(ctx context.Context, id identity.Identity, appID uint) (*model.Application, error) {
	var app model.Application
	err := e.DB.WithContext(ctx).
		Where(authz.ApplicationScope(id)).
		Where("id = ?", appID).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// emitSubmitted resolves the HR contact's account and hands the event to
// the fan-out. Failures here never surface to the caller.
func (e *Engine) emitSubmitted(ctx context.Context, app *model.Application, job *model.Job) {
	if e.Fanout == nil {
		return
	}
	hrAccount, err := notify.ResolveAccountID(ctx, e.DB, &model.StaffProfile{}, app.HRID)
	if err != nil {
		log.Printf("application: failed to resolve hr account for %s: %v", app.HRID, err)
		return
	}
	e.Fanout.Dispatch(ctx, notify.Event{
		Kind:        notify.EventSubmitted,
		Application: *app,
		JobTitle:    job.Title,
		HRAccountID: hrAccount,
	})
}

func (e *Engine) emitStatusChanged(ctx context.Context, app *model.Application, prevStatus string, interviewerAssigned bool, interviewerAccount uuid.UUID) {
	if e.Fanout == nil {
		return
	}

	applicantAccount, err := notify.ResolveAccountID(ctx, e.DB, &model.ApplicantProfile{}, app.ApplicantID)
	if err != nil {
		log.Printf("application: failed to resolve applicant account for %s: %v", app.ApplicantID, err)
		return
	}

	var jobTitles []string
	if err := e.DB.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", app.JobID).Pluck("title", &jobTitles).Error; err != nil || len(jobTitles) == 0 {
		log.Printf("application: failed to resolve job title for %d: %v", app.JobID, err)
	}
	jobTitle := ""
	if len(jobTitles) > 0 {
		jobTitle = jobTitles[0]
	}

	e.Fanout.Dispatch(ctx, notify.Event{
		Kind:                 notify.EventStatusChanged,
		Application:          *app,
		JobTitle:             jobTitle,
		PrevStatus:           prevStatus,
		NewStatus:            app.Status,
		ApplicantAccountID:   applicantAccount,
		InterviewerAccountID: interviewerAccount,
		InterviewerAssigned:  interviewerAssigned,
	})
}
