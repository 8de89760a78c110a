package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"contractorbill/services"
	"contractorbill/testhelpers"
)

const validBillJSON = `{
  "header": {
    "projectName": "Road Works Phase 2",
    "contractorName": "Sharma Builders",
    "billDate": "2024-03-15T00:00:00Z",
    "tenderPremium": 5
  },
  "items": [
    {"itemNo": "1", "description": "Earthwork", "quantity": 50, "rate": 100, "unit": "cum", "indentLevel": 1},
    {"itemNo": "2", "description": "Concrete", "quantity": 30, "rate": 150, "unit": "cum", "indentLevel": 1},
    {"itemNo": "3", "description": "Masonry", "quantity": 0, "rate": 200, "unit": "cum", "indentLevel": 1}
  ]
}`

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleBillCompute_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleBillCompute(services.NewExporter(), zap.NewNop())
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, jsonRequest(http.MethodPost, "/api/bills/compute", validBillJSON), rec)

	require.NoError(t, handler(e))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp BillResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Totals.ValidItems, 2)
	assert.InDelta(t, 9500, resp.Totals.GrossAmount, 1e-9)
	assert.InDelta(t, 475, resp.Totals.PremiumAmount, 1e-9)
	assert.InDelta(t, 9975, resp.Totals.NetPayable, 1e-9)
	assert.InDelta(t, 7380, resp.Totals.ChequeAmount, 1e-9)
}

func TestHandleBillCompute_ValidationError(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleBillCompute(services.NewExporter(), zap.NewNop())
	body := `{"header":{"projectName":"P","contractorName":"C"},"items":[{"quantity":5,"rate":1},{"quantity":-2,"rate":10}]}`
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, jsonRequest(http.MethodPost, "/api/bills/compute", body), rec)

	require.NoError(t, handler(e))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, 2, resp.Problems[0].Item)
	assert.Equal(t, "quantity", resp.Problems[0].Field)
	assert.Equal(t, "none", rec.Header().Get("HX-Reswap"))
}

func TestHandleBillCompute_InvalidJSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleBillCompute(services.NewExporter(), zap.NewNop())
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, jsonRequest(http.MethodPost, "/api/bills/compute", `{"header":`), rec)

	require.NoError(t, handler(e))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBillCreateAndGet(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	exp := services.NewExporter()

	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, jsonRequest(http.MethodPost, "/api/bills", validBillJSON), rec)
	require.NoError(t, HandleBillCreate(app, exp, zap.NewNop())(e))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created BillResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	require.NoError(t, HandleBillGet(app, exp, zap.NewNop())(newTestRequestEvent(app, req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got BillResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Road Works Phase 2", got.Bill.Header.ProjectName)
	assert.Len(t, got.Bill.Items, 3)
	assert.InDelta(t, 9975, got.Totals.NetPayable, 1e-9)
}

func TestHandleBillCreate_RejectsInvalid(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, jsonRequest(http.MethodPost, "/api/bills", `{"header":{},"items":[]}`), rec)

	require.NoError(t, HandleBillCreate(app, services.NewExporter(), zap.NewNop())(e))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	billsCol, _ := app.FindCollectionByNameOrId("bills")
	bills, _ := app.FindAllRecords(billsCol)
	assert.Empty(t, bills, "an invalid bill is never stored")
}

func TestHandleBillGet_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/bills/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()

	require.NoError(t, HandleBillGet(app, services.NewExporter(), zap.NewNop())(newTestRequestEvent(app, req, rec)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRespondBillError_InternalIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/api/bills/x", nil), rec)

	require.NoError(t, respondBillError(e, zap.New(core), assert.AnError))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "bill request failed", logs.All()[0].Message)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(nil, httptest.NewRequest(http.MethodGet, "/api/bills/abc", nil), rec)

	require.NoError(t, RequestLogger(zap.New(core))(e))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/bills/abc", fields["path"])
}
