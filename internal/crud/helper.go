// Package crud implements the generic get/create/update/remove flow shared by
// every resource: input validation, soft delete and not-found handling on top
// of a Store.
package crud

import (
	"context"
	"fmt"
	"net/http"

	"jobsapi/internal/apperror"
	"jobsapi/internal/validator"
)

// Request is the part of an HTTP request the helpers read.
type Request struct {
	URL    string
	Params map[string]string
	Query  map[string][]string
	Body   any
}

// Removed is the response of a soft delete.
type Removed struct {
	IsDeleted bool  `json:"isdeleted"`
	ID        int64 `json:"id"`
}

// GetSingle returns the non-deleted row with id.
func GetSingle(ctx context.Context, store Store, id int64) (Entity, error) {
	e, err := store.FindOne(ctx, Filter{ID: id})
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperror.NotFound(fmt.Sprintf("%s not found with id=%d", store.Name(), id))
	}
	return e, nil
}

// GetAll returns every non-deleted row.
func GetAll(ctx context.Context, store Store) ([]Entity, error) {
	list, err := store.FindMany(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Entity{}
	}
	return list, nil
}

// GetEntity validates req.Params["id"] and returns that row.
func GetEntity(ctx context.Context, req *Request, store Store) (Entity, error) {
	id, err := paramID(req)
	if err != nil {
		return nil, err
	}
	return GetSingle(ctx, store, id)
}

// RemoveEntity soft-deletes the row named by req.Params["id"]. Removing a row
// that is already deleted succeeds without writing.
func RemoveEntity(ctx context.Context, req *Request, store Store) (Removed, error) {
	id, err := paramID(req)
	if err != nil {
		return Removed{}, err
	}
	resp := Removed{IsDeleted: true, ID: id}

	deleted, err := store.Exists(ctx, Filter{ID: id, Deleted: true})
	if err != nil {
		return Removed{}, err
	}
	if deleted {
		return resp, nil
	}

	e, err := GetSingle(ctx, store, id)
	if err != nil {
		return Removed{}, err
	}
	if _, err := store.Save(ctx, e, map[string]any{"isdeleted": true}); err != nil {
		return Removed{}, err
	}
	return resp, nil
}

// CreateEntity validates req.Body[wrapKey][0] against schema and inserts it.
// The returned status is 201.
func CreateEntity(ctx context.Context, req *Request, wrapKey string, store Store, schema validator.Schema) (Entity, int, error) {
	values, err := validateInput(req, wrapKey, schema)
	if err != nil {
		return nil, 0, err
	}
	values["isdeleted"] = false
	e, err := store.Create(ctx, values)
	if err != nil {
		return nil, 0, err
	}
	return e, http.StatusCreated, nil
}

// UpdateEntity validates req.Body[wrapKey][0] against schema and applies it to
// the row named by its id field. The schema must declare a required id.
func UpdateEntity(ctx context.Context, req *Request, wrapKey string, store Store, schema validator.Schema) (Entity, error) {
	values, err := validateInput(req, wrapKey, schema)
	if err != nil {
		return nil, err
	}
	id, _ := values["id"].(int64)
	e, err := GetSingle(ctx, store, id)
	if err != nil {
		return nil, err
	}
	return store.Save(ctx, e, values)
}

func validateInput(req *Request, wrapKey string, schema validator.Schema) (map[string]any, error) {
	if fe := validator.ValidateSingleArrayElement(req.Body, wrapKey); fe != nil {
		return nil, apperror.Validation(*fe)
	}
	input := req.Body.(map[string]any)[wrapKey].([]any)[0]
	if errs := validator.ValidateObject(schema, input); len(errs) > 0 {
		return nil, apperror.Validation(errs...)
	}
	return input.(map[string]any), nil
}

func paramID(req *Request) (int64, error) {
	n := validator.ToNumber(req.Params["id"])
	if errs := validator.ValidateID(n); len(errs) > 0 {
		return 0, apperror.Validation(errs...)
	}
	return int64(n), nil
}
