// Package authz, tüm workflow giriş noktalarının kullandığı tek
// yetkilendirme kapısıdır. Rol/sahiplik kontrolleri handler'lara
// dağılmaz; her karar Allow üzerinden verilir.
package authz

import "pazaryeri-backend/internal/models"

// Resource: yetki tablosundaki kaynak sınıfları.
type Resource string

const (
	ResourceItems           Resource = "items"
	ResourceRequests        Resource = "requests"
	ResourceTransactions    Resource = "transactions"
	ResourceFinanceRequests Resource = "finance_requests"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

type Rights struct {
	Read  bool
	Write bool
}

// Identity: kimlik servisinden çözülen aktör bilgisi. Grants boş
// bırakılırsa rolün varsayılan yetkileri geçerlidir.
type Identity struct {
	UserID uint
	Role   models.UserRole
	Grants map[Resource]Rights
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

// Request: tek bir yetki kararı için gereken bağlam. OwnerID doluysa
// kaynağın sahibi ile aktörün eşleşmesi de izin sayılır (ör. satıcı
// kendi ürününün talebini onaylar, alıcı kendi talebini iptal eder).
type Request struct {
	Resource Resource
	Action   Action
	OwnerID  *uint
}

// Allow: izin/ret kararı. Admin rolü her yetkiyi karşılar.
func Allow(id Identity, req Request) bool {
	if id.IsAdmin() {
		return true
	}
	if req.OwnerID != nil && *req.OwnerID == id.UserID {
		return true
	}
	g, ok := grants(id)[req.Resource]
	if !ok {
		return false
	}
	switch req.Action {
	case ActionRead:
		return g.Read
	case ActionWrite:
		return g.Write
	}
	return false
}

func grants(id Identity) map[Resource]Rights {
	if id.Grants != nil {
		return id.Grants
	}
	return DefaultGrants(id.Role)
}

// DefaultGrants: rol bazlı varsayılan yetkiler. Normal kullanıcı katalog
// okur ve kendi kaynakları üzerinde sahiplik ilişkisiyle işlem yapar;
// kaynak sınıfı genelinde okuma/yazma yalnızca admin'dedir.
func DefaultGrants(role models.UserRole) map[Resource]Rights {
	switch role {
	case models.RoleAdmin:
		return map[Resource]Rights{
			ResourceItems:           {Read: true, Write: true},
			ResourceRequests:        {Read: true, Write: true},
			ResourceTransactions:    {Read: true, Write: true},
			ResourceFinanceRequests: {Read: true, Write: true},
		}
	default:
		return map[Resource]Rights{
			ResourceItems: {Read: true},
		}
	}
}
