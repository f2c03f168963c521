package protocol

import (
	"strconv"
	"strings"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/review"
)

// DateLayout 是评论发布时间在记录中的格式。
const DateLayout = "Mon 02 January 2006 15:04:05 MST"

// FormatHotel 编码一家酒店：
// {name; address; city; type; phone; description; [features]; rate; [l, c, s, v]; rank}
func FormatHotel(h hotel.Hotel) string {
	var b strings.Builder
	b.WriteByte('{')
	writeFields(&b,
		h.Name,
		h.Address,
		h.City,
		h.Type,
		h.Phone,
		h.Description,
		formatList(h.Features),
		formatDouble(h.Rate),
		formatScores(h.Ratings.Values()),
		strconv.Itoa(h.Rank),
	)
	b.WriteByte('}')
	return b.String()
}

// FormatReview 编码一条评论：
// {id; author; hotel; rate; [l, c, s, v]; date; nUpvotes; [voters]}
func FormatReview(r review.Review) string {
	var b strings.Builder
	b.WriteByte('{')
	writeFields(&b,
		strconv.FormatInt(r.ID, 10),
		r.Author,
		r.Hotel,
		formatDouble(r.Rate),
		formatScores(r.Ratings),
		r.Date.Format(DateLayout),
		strconv.Itoa(r.UpvoteCount()),
		formatList(r.Upvotes),
	)
	b.WriteByte('}')
	return b.String()
}

func writeFields(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
	}
}

func formatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func formatScores(s [4]float64) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = formatDouble(v)
	}
	return formatList(parts)
}

// formatDouble 总是保留小数点，整数值写作 "4.0"。
func formatDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func formatHotels(hotels []hotel.Hotel) []string {
	out := make([]string, len(hotels))
	for i, h := range hotels {
		out[i] = FormatHotel(h)
	}
	return out
}

func formatReviews(reviews []review.Review) []string {
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = FormatReview(r)
	}
	return out
}
