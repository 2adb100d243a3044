package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                2251799813685249,
		Type:               "notify-new-incident",
		Retries:            retries,
		ProcessInstanceKey: 2251799813685200,
	}}
}

func TestDecide(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name        string
		err         error
		retries     int32
		wantAction  Action
		wantRetries int32
		wantCode    ErrorCode
	}{
		{
			name:        "directory read failure is handed back with fewer retries",
			err:         NewDirectoryReadFailedError(cause),
			retries:     3,
			wantAction:  ActionFail,
			wantRetries: 2,
			wantCode:    ErrCodeDirectoryReadFailed,
		},
		{
			name:        "transport failure on last attempt leaves zero retries",
			err:         NewPushTransportFailedError(cause),
			retries:     1,
			wantAction:  ActionFail,
			wantRetries: 0,
			wantCode:    ErrCodePushTransportFailed,
		},
		{
			name:        "wrapped standard error is still recognised",
			err:         fmt.Errorf("pipeline: %w", NewPushTransportFailedError(cause)),
			retries:     3,
			wantAction:  ActionFail,
			wantRetries: 2,
			wantCode:    ErrCodePushTransportFailed,
		},
		{
			name:       "invalid payload is thrown",
			err:        NewInvalidIncidentPayloadError("incidentId is required"),
			retries:    3,
			wantAction: ActionThrow,
			wantCode:   ErrCodeInvalidIncidentPayload,
		},
		{
			name:       "oversized batch is thrown",
			err:        NewPushBatchTooLargeError(501, 500),
			retries:    3,
			wantAction: ActionThrow,
			wantCode:   ErrCodePushBatchTooLarge,
		},
		{
			name:       "plain error becomes internal and is thrown",
			err:        cause,
			retries:    3,
			wantAction: ActionThrow,
			wantCode:   ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(testJob(tt.retries), tt.err)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantRetries, d.Retries)
			assert.Equal(t, tt.wantCode, d.Error.Code)
			require.NotNil(t, d.BPMN)
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	err := NewPushTransportFailedError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PUSH_TRANSPORT_FAILED")
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewDirectoryReadFailedError(stderrors.New("timeout")))
	assert.Equal(t, "DIRECTORY_READ_FAILED", bpmn.Code)
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 3, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "DIRECTORY_READ_FAILED", vars["errorCode"])
	assert.Equal(t, "DIRECTORY_READ_FAILED", vars["originalErrorCode"])
	assert.NotEmpty(t, vars["timestamp"])

	bpmn = ConvertToBPMNError(NewCleanupWriteFailedError(stderrors.New("tx aborted")))
	assert.Equal(t, "CLEANUP_WRITE_FAILED", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DIRECTORY", GetErrorCategory(ErrCodeDirectoryReadFailed))
	assert.Equal(t, "DIRECTORY", GetErrorCategory(ErrCodeCleanupWriteFailed))
	assert.Equal(t, "PUSH", GetErrorCategory(ErrCodePushTransportFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidIncidentPayload))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodePushTransportFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodePushBatchTooLarge))
}
