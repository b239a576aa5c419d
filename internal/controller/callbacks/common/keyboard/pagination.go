package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// PaginationButtons создаёт ряд кнопок пагинации
// prefix - префикс для callback (например "docs_page:")
// currentPage - текущая страница (0-based)
func PaginationButtons(prefix string, currentPage, totalPages int) []models.InlineKeyboardButton {
	if totalPages <= 1 {
		return nil
	}

	var buttons []models.InlineKeyboardButton

	if currentPage > 0 {
		buttons = append(buttons, Button("⬅️", fmt.Sprintf("%s%d", prefix, currentPage-1)))
	}

	buttons = append(buttons, Button(
		fmt.Sprintf("📄 %d/%d", currentPage+1, totalPages),
		"noop",
	))

	if currentPage < totalPages-1 {
		buttons = append(buttons, Button("➡️", fmt.Sprintf("%s%d", prefix, currentPage+1)))
	}

	return buttons
}

// AddPagination добавляет пагинацию к builder
func (b *Builder) AddPagination(prefix string, currentPage, totalPages int) *Builder {
	buttons := PaginationButtons(prefix, currentPage, totalPages)
	if len(buttons) > 0 {
		b.Row(buttons...)
	}
	return b
}

// PageBounds возвращает границы страницы и число страниц.
// Страница за пределами списка прижимается к последней.
func PageBounds(total, pageSize, page int) (start, end, pages, current int) {
	if pageSize <= 0 {
		pageSize = total
	}
	if total == 0 || pageSize == 0 {
		return 0, 0, 1, 0
	}
	pages = (total + pageSize - 1) / pageSize
	current = page
	if current < 0 {
		current = 0
	}
	if current >= pages {
		current = pages - 1
	}
	start = current * pageSize
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end, pages, current
}
