package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/flipline/flipline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping integration tests: %v\n", err)
		os.Exit(0)
	}
	testDB = db

	code := m.Run()

	db.Teardown(ctx)
	os.Exit(code)
}

func setupTest(t *testing.T) *TestServer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))

	ts := NewTestServer(testDB.DB)
	t.Cleanup(ts.Close)
	return ts
}

func TestPasswordLoginFlow(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	email, password := TestUser("admin")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleSuperadmin, true)
	require.NoError(t, err)

	// Wrong password is rejected with a generic error
	resp, err := ts.Request("POST", "/api/login-password", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct credentials establish a session
	cookie, err := ts.LoginPassword(email, password)
	require.NoError(t, err)

	resp, err = ts.Request("GET", "/api/user", nil, cookie)
	require.NoError(t, err)
	var user map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &user))
	assert.Equal(t, email, user["email"])
	assert.Equal(t, models.RoleSuperadmin, user["role"])

	// Logout invalidates the session server-side
	resp, err = ts.Request("POST", "/api/logout", nil, cookie)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Request("GET", "/api/user", nil, cookie)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeactivatedUserCannotLogIn(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	email, password := TestUser("inactive")
	_, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleManager, false)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/api/login-password", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMagicLinkFlow(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	email, password := TestUser("va")
	vaUser, err := SeedUser(ctx, testDB.Pool, email, password, models.RoleVA, true)
	require.NoError(t, err)
	_, err = SeedVA(ctx, testDB.Pool, &vaUser.ID, "Alice", 0)
	require.NoError(t, err)

	// Request a link; the response never reveals whether the email exists
	resp, err := ts.Request("POST", "/api/login-magic-request", map[string]string{"email": email})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	sent := ts.EmailService.GetLastEmail()
	require.NotNil(t, sent, "a magic link email should have been sent")
	assert.Equal(t, email, sent.To)
	assert.Equal(t, "magic_link", sent.Kind)
	assert.Len(t, sent.Token, 64)

	// Unknown emails get the same 200 and no email
	before := len(ts.EmailService.SentEmails)
	resp, err = ts.Request("POST", "/api/login-magic-request", map[string]string{"email": "nobody@example.com"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, ts.EmailService.SentEmails, before)

	// Consume the link
	resp, err = ts.Request("POST", "/api/login-magic-consume", map[string]string{"token": sent.Token})
	require.NoError(t, err)
	var user map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &user))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleVA, user["role"])

	// Tokens are single-use
	resp, err = ts.Request("POST", "/api/login-magic-consume", map[string]string{"token": sent.Token})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLeadLifecycleToCommission(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	adminEmail, adminPassword := TestUser("admin")
	_, err := SeedUser(ctx, testDB.Pool, adminEmail, adminPassword, models.RoleSuperadmin, true)
	require.NoError(t, err)

	vaEmail, vaPassword := TestUser("va")
	vaUser, err := SeedUser(ctx, testDB.Pool, vaEmail, vaPassword, models.RoleVA, true)
	require.NoError(t, err)
	_, err = SeedVA(ctx, testDB.Pool, &vaUser.ID, "Alice", 0)
	require.NoError(t, err)

	vaCookie, err := ts.LoginPassword(vaEmail, vaPassword)
	require.NoError(t, err)
	adminCookie, err := ts.LoginPassword(adminEmail, adminPassword)
	require.NoError(t, err)

	// VA submits a lead
	body := TestLeadBody("lifecycle")
	resp, err := ts.Request("POST", "/api/leads", body, vaCookie)
	require.NoError(t, err)
	var lead map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &lead))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.StatusPending, lead["status"])
	assert.Equal(t, 1600.0, lead["estimatedProfit"])
	leadID := lead["id"].(string)

	// Resubmitting the same listing URL is rejected as a duplicate
	resp, err = ts.Request("POST", "/api/leads", body, vaCookie)
	require.NoError(t, err)
	var dup map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &dup))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_lead", dup["error"])
	assert.Equal(t, leadID, dup["conflictingLeadId"])

	// VAs cannot move the pipeline
	resp, err = ts.Request("PATCH", "/api/leads/"+leadID+"/status", map[string]string{"status": models.StatusApproved}, vaCookie)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin walks the lead through the pipeline to SOLD
	for _, status := range []string{
		models.StatusApproved,
		models.StatusContacted,
		models.StatusBought,
		models.StatusSold,
	} {
		resp, err = ts.Request("PATCH", "/api/leads/"+leadID+"/status", map[string]string{"status": status}, adminCookie)
		require.NoError(t, err)
		var updated map[string]interface{}
		require.NoError(t, ParseJSONResponse(resp, &updated))
		require.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", status)
		assert.Equal(t, status, updated["status"])
	}

	// SOLD created a commission at the default 10% rate
	resp, err = ts.Request("GET", "/api/commissions?leadId="+leadID, nil, adminCookie)
	require.NoError(t, err)
	var commissions []map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &commissions))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, commissions, 1)
	assert.Equal(t, 160.0, commissions[0]["amount"])
	assert.Equal(t, true, commissions[0]["isDue"])
	assert.Equal(t, false, commissions[0]["isPaid"])

	// Full status history was recorded
	resp, err = ts.Request("GET", "/api/leads/"+leadID+"/events", nil, adminCookie)
	require.NoError(t, err)
	var events []map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &events))
	assert.Len(t, events, 5) // creation + four transitions
}

func TestDeleteVAWithActivity(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	adminEmail, adminPassword := TestUser("admin")
	_, err := SeedUser(ctx, testDB.Pool, adminEmail, adminPassword, models.RoleSuperadmin, true)
	require.NoError(t, err)

	vaEmail, vaPassword := TestUser("va")
	vaUser, err := SeedUser(ctx, testDB.Pool, vaEmail, vaPassword, models.RoleVA, true)
	require.NoError(t, err)
	va, err := SeedVA(ctx, testDB.Pool, &vaUser.ID, "Alice", 0)
	require.NoError(t, err)

	vaCookie, err := ts.LoginPassword(vaEmail, vaPassword)
	require.NoError(t, err)
	adminCookie, err := ts.LoginPassword(adminEmail, adminPassword)
	require.NoError(t, err)

	// The VA submits a lead and the admin sells it, earning a commission
	resp, err := ts.Request("POST", "/api/leads", TestLeadBody("vadelete"), vaCookie)
	require.NoError(t, err)
	var lead map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &lead))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	leadID := lead["id"].(string)

	for _, status := range []string{
		models.StatusApproved,
		models.StatusContacted,
		models.StatusBought,
		models.StatusSold,
	} {
		resp, err = ts.Request("PATCH", "/api/leads/"+leadID+"/status", map[string]string{"status": status}, adminCookie)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "transition to %s", status)
	}

	// Deleting the VA succeeds despite the lead, events and commission
	resp, err = ts.Request("DELETE", "/api/vas/"+va.ID, nil, adminCookie)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The lead survives, detached from the deleted VA
	resp, err = ts.Request("GET", "/api/leads/"+leadID, nil, adminCookie)
	require.NoError(t, err)
	var survivor map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &survivor))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, survivor["vaId"])

	// The commission remains as a financial record with no VA reference
	resp, err = ts.Request("GET", "/api/commissions?leadId="+leadID, nil, adminCookie)
	require.NoError(t, err)
	var commissions []map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &commissions))
	require.Len(t, commissions, 1)
	assert.Nil(t, commissions[0]["vaId"])

	// Status history survives with the deleted user anonymized
	resp, err = ts.Request("GET", "/api/leads/"+leadID+"/events", nil, adminCookie)
	require.NoError(t, err)
	var events []map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &events))
	assert.Len(t, events, 5)
	for _, event := range events {
		if event["toStatus"] == models.StatusPending {
			assert.Nil(t, event["userId"], "creation event should be anonymized")
		}
	}

	// The deleted VA's account is gone
	resp, err = ts.Request("POST", "/api/login-password", map[string]string{
		"email":    vaEmail,
		"password": vaPassword,
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVAOnlySeesOwnLeads(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	aliceEmail, alicePassword := TestUser("alice")
	aliceUser, err := SeedUser(ctx, testDB.Pool, aliceEmail, alicePassword, models.RoleVA, true)
	require.NoError(t, err)
	_, err = SeedVA(ctx, testDB.Pool, &aliceUser.ID, "Alice", 0)
	require.NoError(t, err)

	bobEmail, bobPassword := TestUser("bob")
	bobUser, err := SeedUser(ctx, testDB.Pool, bobEmail, bobPassword, models.RoleVA, true)
	require.NoError(t, err)
	_, err = SeedVA(ctx, testDB.Pool, &bobUser.ID, "Bob", 0)
	require.NoError(t, err)

	aliceCookie, err := ts.LoginPassword(aliceEmail, alicePassword)
	require.NoError(t, err)
	bobCookie, err := ts.LoginPassword(bobEmail, bobPassword)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/api/leads", TestLeadBody("alice"), aliceCookie)
	require.NoError(t, err)
	var lead map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &lead))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	leadID := lead["id"].(string)

	// Bob's listing does not include Alice's lead
	resp, err = ts.Request("GET", "/api/leads", nil, bobCookie)
	require.NoError(t, err)
	var bobLeads []map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &bobLeads))
	assert.Empty(t, bobLeads)

	// Direct fetch of Alice's lead 404s for Bob
	resp, err = ts.Request("GET", "/api/leads/"+leadID, nil, bobCookie)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
