package authz

import (
	"testing"

	"pazaryeri-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func TestAllow_AdminAlwaysAllowed(t *testing.T) {
	admin := Identity{UserID: 1, Role: models.RoleAdmin}

	assert.True(t, Allow(admin, Request{Resource: ResourceRequests, Action: ActionRead}))
	assert.True(t, Allow(admin, Request{Resource: ResourceRequests, Action: ActionWrite}))
	assert.True(t, Allow(admin, Request{Resource: ResourceFinanceRequests, Action: ActionWrite, OwnerID: uintPtr(99)}))
}

func TestAllow_OwnerMatch(t *testing.T) {
	user := Identity{UserID: 7, Role: models.RoleUser}

	assert.True(t, Allow(user, Request{Resource: ResourceRequests, Action: ActionWrite, OwnerID: uintPtr(7)}))
	assert.False(t, Allow(user, Request{Resource: ResourceRequests, Action: ActionWrite, OwnerID: uintPtr(8)}))
}

func TestAllow_DefaultGrants(t *testing.T) {
	user := Identity{UserID: 7, Role: models.RoleUser}

	// Normal kullanıcı kataloğu okur ama kaynak sınıfı genelinde talep okuyamaz
	assert.True(t, Allow(user, Request{Resource: ResourceItems, Action: ActionRead}))
	assert.False(t, Allow(user, Request{Resource: ResourceItems, Action: ActionWrite}))
	assert.False(t, Allow(user, Request{Resource: ResourceRequests, Action: ActionRead}))
	assert.False(t, Allow(user, Request{Resource: ResourceTransactions, Action: ActionWrite}))
}

func TestAllow_ExplicitGrantsOverrideDefaults(t *testing.T) {
	auditor := Identity{
		UserID: 3,
		Role:   models.RoleUser,
		Grants: map[Resource]Rights{
			ResourceRequests: {Read: true},
		},
	}

	assert.True(t, Allow(auditor, Request{Resource: ResourceRequests, Action: ActionRead}))
	assert.False(t, Allow(auditor, Request{Resource: ResourceRequests, Action: ActionWrite}))
	// Verilen Grants varsayılanların yerine geçer, üstüne eklenmez
	assert.False(t, Allow(auditor, Request{Resource: ResourceItems, Action: ActionRead}))
}

func TestAllow_UnknownAction(t *testing.T) {
	user := Identity{UserID: 7, Role: models.RoleUser}

	assert.False(t, Allow(user, Request{Resource: ResourceItems, Action: Action("execute")}))
}
