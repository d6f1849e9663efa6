package leankit

import "strconv"

// ReplyCode is the application-level status code LeanKit embeds in every
// response envelope. It is independent of the HTTP status.
type ReplyCode int

// Reply codes returned by the LeanKit API.
const (
	NoData                     ReplyCode = 100
	DataRetrievalSuccess       ReplyCode = 200
	DataInsertSuccess          ReplyCode = 201
	DataUpdateSuccess          ReplyCode = 202
	DataDeleteSuccess          ReplyCode = 203
	SystemException            ReplyCode = 500
	MinorException             ReplyCode = 501
	UserException              ReplyCode = 502
	FatalException             ReplyCode = 503
	ThrottleWaitResponse       ReplyCode = 800
	WipOverrideCommentRequired ReplyCode = 900
	ResendingEmailRequired     ReplyCode = 902
	UnauthorizedAccess         ReplyCode = 1000
)

var replyCodeNames = map[ReplyCode]string{
	NoData:                     "NoData",
	DataRetrievalSuccess:       "DataRetrievalSuccess",
	DataInsertSuccess:          "DataInsertSuccess",
	DataUpdateSuccess:          "DataUpdateSuccess",
	DataDeleteSuccess:          "DataDeleteSuccess",
	SystemException:            "SystemException",
	MinorException:             "MinorException",
	UserException:              "UserException",
	FatalException:             "FatalException",
	ThrottleWaitResponse:       "ThrottleWaitResponse",
	WipOverrideCommentRequired: "WipOverrideCommentRequired",
	ResendingEmailRequired:     "ResendingEmailRequired",
	UnauthorizedAccess:         "UnauthorizedAccess",
}

// IsSuccess reports whether the code is one of the retrieval, insert,
// update or delete success codes. Every other code, including
// ThrottleWaitResponse, is a failure.
func (c ReplyCode) IsSuccess() bool {
	switch c {
	case DataRetrievalSuccess, DataInsertSuccess, DataUpdateSuccess, DataDeleteSuccess:
		return true
	default:
		return false
	}
}

// String returns the LeanKit name of the code, or the number for unknown codes.
func (c ReplyCode) String() string {
	if name, ok := replyCodeNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}

// isSuccessStatus applies the same success set to the HTTP status line.
func isSuccessStatus(status int) bool {
	return ReplyCode(status).IsSuccess()
}
