// Package entitlement вычисляет право пользователя на просмотр полного содержимого книги.
//
// Два флага книги (IsFree, IsPremium) сворачиваются в один Tier вместе со статусом
// зрителя, после чего решение однозначно: полный доступ или превью из первых
// PreviewPages страниц с маркером «продолжить чтение» в конце.
// Evaluate не возвращает ошибок, отсутствие пользователя считается обычным входом.
package entitlement

import "github.com/magabrotheeeer/glanceread/internal/models"

// PreviewPages число страниц, доступных без подписки.
const PreviewPages = 3

// Access итоговое решение о доступе.
type Access string

const (
	FullAccess    Access = "FULL_ACCESS"
	PreviewLocked Access = "PREVIEW_LOCKED"
)

// Tier класс доступа пары (книга, зритель).
type Tier int

const (
	// TierFree книга бесплатная или не премиальная.
	TierFree Tier = iota
	// TierPremiumLocked премиальная книга, зритель без активной подписки.
	TierPremiumLocked
	// TierPremiumUnlocked премиальная книга, подписка зрителя активна.
	TierPremiumUnlocked
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPremiumLocked:
		return "premium_locked"
	case TierPremiumUnlocked:
		return "premium_unlocked"
	default:
		return "unknown"
	}
}

// Виды элементов в последовательности страниц.
const (
	KindPage            = "page"
	KindContinueReading = "continue_reading"
)

// Page элемент, отдаваемый читалке: страница или призыв продолжить чтение.
type Page struct {
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
}

// Decision результат вычисления доступа.
type Decision struct {
	Access       Access `json:"access"`
	Tier         string `json:"tier"`
	TotalPages   int    `json:"total_pages"`
	VisiblePages int    `json:"visible_pages"`
	Pages        []Page `json:"pages"`
}

// Classify сворачивает флаги книги и статус зрителя в Tier.
// Порядок проверок важен: IsFree перекрывает IsPremium.
func Classify(book *models.Book, viewer *models.User) Tier {
	switch {
	case book.IsFree:
		return TierFree
	case !book.IsPremium:
		return TierFree
	case viewer == nil:
		return TierPremiumLocked
	case viewer.SubscriptionStatus == models.StatusActive:
		return TierPremiumUnlocked
	default:
		return TierPremiumLocked
	}
}

// Evaluate вычисляет решение о доступе viewer к book. Для анонимного зрителя viewer равен nil.
func Evaluate(book *models.Book, viewer *models.User) Decision {
	tier := Classify(book, viewer)
	total := len(book.InfographicImages)

	d := Decision{
		Access:     FullAccess,
		Tier:       tier.String(),
		TotalPages: total,
	}

	visible := total
	if tier == TierPremiumLocked {
		d.Access = PreviewLocked
		visible = min(PreviewPages, total)
	}

	d.VisiblePages = visible
	d.Pages = make([]Page, 0, visible+1)
	for _, url := range book.InfographicImages[:visible] {
		d.Pages = append(d.Pages, Page{Kind: KindPage, URL: url})
	}
	if d.Access == PreviewLocked {
		d.Pages = append(d.Pages, Page{Kind: KindContinueReading})
	}
	return d
}

// Redact возвращает копию book, в которой оставлены только доступные viewer страницы.
// Исходная книга не меняется, её можно хранить в кеше.
func Redact(book *models.Book, viewer *models.User) (*models.Book, Decision) {
	d := Evaluate(book, viewer)
	visible := *book
	visible.InfographicImages = book.InfographicImages[:d.VisiblePages:d.VisiblePages]
	return &visible, d
}

// RedactAll применяет Redact к каждой книге списка.
func RedactAll(books []*models.Book, viewer *models.User) []*models.Book {
	res := make([]*models.Book, 0, len(books))
	for _, b := range books {
		visible, _ := Redact(b, viewer)
		res = append(res, visible)
	}
	return res
}
