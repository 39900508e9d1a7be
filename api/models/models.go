// Package models tracks all api models for request and responses
package models

type ErrorResponse struct {
	Error string `json:"error"`
}
