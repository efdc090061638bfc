// Package notify, başarılı mutasyonlar sonrası yayınlanan değişiklik
// bildirimlerini taşır. Teslimat en-iyi-çabadır: Publish hiçbir zaman
// bloklamaz, dolu abone kanalı bildirimi kaçırır ve bu durum işlemin
// sonucunu asla etkilemez.
package notify

import "sync"

// Event: {kaynak, id, eylem} üçlüsü; canlı arayüz yenilemesi için yeterli.
type Event struct {
	Resource string `json:"resource"`
	ID       uint   `json:"id"`
	Action   string `json:"action"`
}

type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe: tamponlu bir abone kanalı döner. Kanal Bus kapanana kadar
// açık kalır; tüketmeyen abone bildirim kaybeder.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish: bildirimi tüm abonelere bloklamadan dağıtır.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// abone yetişemedi; bildirim düşer
		}
	}
}

// Close: abone kanallarını kapatır. Close sonrası Publish çağrılmamalıdır.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
