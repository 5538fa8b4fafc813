package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/mwhebadata/erp_backend/utils"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing record", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"business rule", errors.New("supplier not found"), http.StatusBadRequest},
		{"driver failure", &mysql.MySQLError{Number: 1205, Message: "lock wait timeout exceeded"}, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		handleError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}

func TestHandleErrorValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type loginInput struct {
		Username string `validate:"required"`
	}
	err := validator.New().Struct(loginInput{})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleError(c, err)
	if w.Code != http.StatusBadRequest {
		t.Errorf("validation error status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
