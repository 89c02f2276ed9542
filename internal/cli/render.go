package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/BloggingApp/feed-service/internal/feed"
	"github.com/charmbracelet/lipgloss"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  lipgloss.TerminalColor = ac("240", "245")
	colorAccent lipgloss.TerminalColor = ac("#1f6feb", "#58a6ff")
	colorBorder lipgloss.TerminalColor = ac("250", "243")
	colorDanger lipgloss.TerminalColor = ac("#cf222e", "#ff7b72")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(72)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	badgeStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	actionStyle = lipgloss.NewStyle().Foreground(colorAccent)
	errorStyle  = lipgloss.NewStyle().Foreground(colorDanger)
)

// cardRenderer prints feed cards to a terminal. The terminal cannot take
// cards back, so Clear only restarts the count.
type cardRenderer struct {
	w        io.Writer
	shown    int
	loadMore bool
}

func newCardRenderer(w io.Writer) *cardRenderer {
	return &cardRenderer{w: w}
}

func (r *cardRenderer) Clear() {
	r.shown = 0
}

func (r *cardRenderer) Render(card feed.Card) {
	r.shown++
	fmt.Fprintln(r.w, renderCard(card))
}

func (r *cardRenderer) SetLoadMore(visible bool) {
	r.loadMore = visible
}

func renderCard(card feed.Card) string {
	post := card.Post

	var b strings.Builder
	b.WriteString(badgeStyle.Render(strings.ToUpper(card.CategoryName)))
	b.WriteString(" ")
	b.WriteString(titleStyle.Render(post.Title))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s · %d min read · by %s", card.Date, post.ReadTime, post.AuthorDisplayName)))

	if post.Excerpt != "" {
		b.WriteString("\n\n")
		b.WriteString(post.Excerpt)
	}

	if len(post.Tags) > 0 {
		tags := make([]string, 0, len(post.Tags))
		for _, tag := range post.Tags {
			tags = append(tags, "#"+tag)
		}
		b.WriteString("\n")
		b.WriteString(metaStyle.Render(strings.Join(tags, " ")))
	}

	b.WriteString("\n")
	b.WriteString(metaStyle.Render("id: " + post.ID))
	if card.Permission.CanMutate() {
		b.WriteString("  ")
		b.WriteString(actionStyle.Render(fmt.Sprintf("[edit] [delete] (%s)", card.Permission)))
	}

	return cardStyle.Render(b.String())
}
