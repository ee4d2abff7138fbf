package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	before := testutil.ToFloat64(IdentityResolutionsTotal.WithLabelValues("created"))
	r.IdentityResolved("created")
	r.IdentityResolved("created")
	assert.Equal(t, before+2, testutil.ToFloat64(IdentityResolutionsTotal.WithLabelValues("created")))

	createdBefore := testutil.ToFloat64(ConversationsCreatedTotal)
	r.ConversationCreated()
	assert.Equal(t, createdBefore+1, testutil.ToFloat64(ConversationsCreatedTotal))
}

func TestRecordRequest_NormalizesEndpoint(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordRequest("GET", "", "404", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	assert.Equal(t, "/v1/conversations", normalizeEndpoint("/v1/conversations/"))
}

func TestRecordAuth(t *testing.T) {
	before := testutil.ToFloat64(AuthRequestsTotal.WithLabelValues("jwt", "failure"))
	RecordAuth("jwt", "failure")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthRequestsTotal.WithLabelValues("jwt", "failure")))
}
