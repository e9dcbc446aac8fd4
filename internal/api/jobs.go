package api

import (
	"context"
	"net/http"
	"strconv"

	"jobsapi/internal/crud"
	"jobsapi/internal/validator"
)

// JobStatuses are the status__c values used when no enum catalog provides them.
var JobStatuses = []string{"New", "In Progress", "Complete"}

const (
	jobModel   = "Job"
	jobWrapKey = "jobs"
)

// Jobs handles the job resource.
type Jobs struct {
	create validator.Schema
	update validator.Schema
}

// NewJobs builds the job handlers. statuses are the allowed status__c values.
func NewJobs(statuses []string) *Jobs {
	if len(statuses) == 0 {
		statuses = JobStatuses
	}
	return &Jobs{
		create: validator.Schema{
			validator.String("job_name__c", 100).Required(),
			validator.String("job_address__c", 200).Required(),
			validator.String("info_text__c", 255),
			validator.String("client_contact__c", 18),
			validator.String("contact_name__c", 1300),
			validator.String("client_name__c", 1300),
			validator.String("client_account__c", 18),
			validator.String("phone__c", 40).Required(),
		}.MustCheck(),
		update: validator.Schema{
			validator.DateTime("job_start_time__c"),
			validator.DateTime("job_end_time__c"),
			validator.Enum("status__c", statuses...),
			validator.String("notes__c", 32000),
			validator.String("info_text__c", 255),
			validator.String("job_address__c", 200).OptionalRequired(),
			validator.String("phone__c", 40).OptionalRequired(),
			validator.String("job_name__c", 100).OptionalRequired(),
			validator.ID("id").Required(),
		}.MustCheck(),
	}
}

// Controller returns the job actions by name.
func (j *Jobs) Controller() Controller {
	return Controller{
		WrapKey: jobWrapKey,
		Actions: map[string]Action{
			"index":  NeedsResponse(j.Index),
			"show":   NeedsRequest(j.Show),
			"create": NeedsRequest(j.Create),
			"update": NeedsRequest(j.Update),
			"remove": NeedsRequest(j.Remove),
		},
	}
}

func (j *Jobs) Index(ctx context.Context, _ *crud.Request, header http.Header, m crud.Models) (any, int, error) {
	store, err := m.Model(jobModel)
	if err != nil {
		return nil, 0, err
	}
	list, err := crud.GetAll(ctx, store)
	if err != nil {
		return nil, 0, err
	}
	header.Set("X-Total-Count", strconv.Itoa(len(list)))
	return list, http.StatusOK, nil
}

func (j *Jobs) Show(ctx context.Context, req *crud.Request, m crud.Models) (any, int, error) {
	store, err := m.Model(jobModel)
	if err != nil {
		return nil, 0, err
	}
	e, err := crud.GetEntity(ctx, req, store)
	return e, 0, err
}

func (j *Jobs) Create(ctx context.Context, req *crud.Request, m crud.Models) (any, int, error) {
	store, err := m.Model(jobModel)
	if err != nil {
		return nil, 0, err
	}
	return crud.CreateEntity(ctx, req, jobWrapKey, store, j.create)
}

func (j *Jobs) Update(ctx context.Context, req *crud.Request, m crud.Models) (any, int, error) {
	store, err := m.Model(jobModel)
	if err != nil {
		return nil, 0, err
	}
	e, err := crud.UpdateEntity(ctx, req, jobWrapKey, store, j.update)
	return e, 0, err
}

func (j *Jobs) Remove(ctx context.Context, req *crud.Request, m crud.Models) (any, int, error) {
	store, err := m.Model(jobModel)
	if err != nil {
		return nil, 0, err
	}
	r, err := crud.RemoveEntity(ctx, req, store)
	return r, 0, err
}
