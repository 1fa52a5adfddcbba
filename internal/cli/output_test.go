package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(CheckReport{Checked: 2, Changed: []string{}})
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckReport `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Checked)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Failure(CheckReport{Checked: 1, Changed: []string{"a.md"}}, ErrCodeOutOfDate, "1 document(s) out of date")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckReport `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, []string{"a.md"}, resp.Data.Changed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeOutOfDate, resp.Error.Code)
	assert.Equal(t, "1 document(s) out of date", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(CheckReport{Checked: 3}))
	assert.Equal(t, "3 document(s) up to date\n", buf.String())
}

func TestOutputFormatter_TextFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Failure(CheckReport{Checked: 2, Changed: []string{"a.md"}}, ErrCodeOutOfDate, "1 document(s) out of date")
	require.NoError(t, err)
	assert.Equal(t, "out of date: a.md\n1 of 2 document(s) out of date\n"+
		"Error [E_OUT_OF_DATE]: 1 document(s) out of date\n", buf.String())
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"count":42}}`, string(data))
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")

	plain := NewExitError(ExitUsage, "no documents selected")
	assert.Equal(t, "no documents selected", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := WrapExitError(ExitFailure, "write failed", cause)
	assert.Equal(t, "write failed: disk full", wrapped.Error())
	assert.True(t, errors.Is(wrapped, cause))
}

func TestGetExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitUsage, "bad flag"), ExitUsage},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitUsage, "bad flag")), ExitUsage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GetExitCode(tc.err))
		})
	}
}
