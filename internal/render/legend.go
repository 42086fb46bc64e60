package render

import (
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Legend formats one label per class interval under the given BCP 47
// locale, e.g. "1,25 – 3,40" for pt-BR. The last interval is closed at the
// maximum; the label text does not repeat that detail. An unparsable locale
// falls back to Brazilian Portuguese, the audience of the census data.
func Legend(breaks []float64, locale string) []string {
	tag, err := language.Parse(locale)
	if err != nil {
		zap.L().Debug("render: bad locale, using pt-BR", zap.String("locale", locale))
		tag = language.BrazilianPortuguese
	}
	p := message.NewPrinter(tag)

	if len(breaks) < 2 {
		return nil
	}
	labels := make([]string, 0, len(breaks)-1)
	for i := 0; i < len(breaks)-1; i++ {
		labels = append(labels, p.Sprintf("%.2f – %.2f", breaks[i], breaks[i+1]))
	}
	return labels
}
