// Package apperr, servis katmanının hata sınıflandırmasını tutar.
// Handler'lar bu sentinel'leri HTTP durum kodlarına çevirir; servisler
// fiber'a bağımlı olmadan hata döner.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrValidation        = errors.New("geçersiz veri")
	ErrNotFound          = errors.New("kayıt bulunamadı")
	ErrForbidden         = errors.New("bu işlem için yetkiniz yok")
	ErrInsufficientStock = errors.New("yetersiz stok")
	ErrConflict          = errors.New("işlem mevcut durumla çelişiyor")
)

// Status: sentinel → HTTP durum kodu. Bilinmeyen hatalar sunucu hatasıdır.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrConflict):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// ToFiber: servis hatasını kullanıcıya dönecek fiber hatasına çevirir.
// Sınıflandırılmamış hatalar detay sızdırmaz; loglama çağıranın işidir.
func ToFiber(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	status := Status(err)
	if status == fiber.StatusInternalServerError {
		return fiber.NewError(status, "Beklenmeyen sunucu hatası")
	}
	return fiber.NewError(status, err.Error())
}
