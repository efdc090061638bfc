// Package idgen, iş akışlarına enjekte edilen kimlik üreticisini tutar.
// Üretici dışarıdan verildiği için testlerde deterministik bir sayaçla
// değiştirilebilir.
package idgen

import "github.com/google/uuid"

// Generator: yeni bir işlem referansı üretir.
type Generator func() string

// UUID: varsayılan üretici.
func UUID() string {
	return uuid.NewString()
}
