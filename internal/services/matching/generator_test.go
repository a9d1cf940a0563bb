package matching

import (
	"fmt"
	"testing"

	"document-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name string, mut ...func(*models.Product)) models.Product {
	p := models.Product{ID: uuid.New(), Name: name, Type: "good"}
	for _, m := range mut {
		m(&p)
	}
	return p
}

func withBarcode(b string) func(*models.Product) {
	return func(p *models.Product) { p.Barcode = b }
}

func withArticle(a string) func(*models.Product) {
	return func(p *models.Product) { p.Article = a }
}

func withSynonyms(s ...string) func(*models.Product) {
	return func(p *models.Product) { p.Synonyms = s }
}

func TestGenerateBarcodeSignal(t *testing.T) {
	// Scenario: exact barcode equality wins at full confidence.
	prd := product("Сыр Моцарелла для пиццы 45%", withBarcode("4601234000017"))
	catalog := []models.Product{
		product("Другой товар", withBarcode("4601234000099")),
		prd,
	}
	line := models.Line{Name: "Сыр Моцарелла 45%", Barcode: "4601234000017"}

	cands := Generate(line, catalog, nil, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, prd.ID, cands[0].ProductID)
	assert.Equal(t, 1.0, cands[0].Score)
	assert.Equal(t, models.SourceBarcode, cands[0].Source)
}

func TestGenerateBarcodeTrimmed(t *testing.T) {
	prd := product("Товар", withBarcode("4601234000017"))
	line := models.Line{Name: "Товар", Barcode: "  4601234000017  "}

	cands := Generate(line, []models.Product{prd}, nil, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, models.SourceBarcode, cands[0].Source)
}

func TestGenerateArticleSignal(t *testing.T) {
	prd := product("Коробка пицца 33см", withArticle("BOX-33"))
	line := models.Line{Name: "коробка", Article: "box-33"}

	cands := Generate(line, []models.Product{prd}, nil, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, 0.95, cands[0].Score)
	assert.Equal(t, models.SourceArticle, cands[0].Source)
}

func TestGenerateSynonymFuzzySignal(t *testing.T) {
	// Scenario: a synonym equal to the line name carries the
	// name-signal candidate over the cutoff.
	prd := product("Соус томатный базовый", withSynonyms("соус для пиццы"))
	line := models.Line{Name: "Соус для пиццы"}

	cands := Generate(line, []models.Product{prd}, nil, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, prd.ID, cands[0].ProductID)
	assert.Equal(t, models.SourceName, cands[0].Source)
	assert.GreaterOrEqual(t, cands[0].Score, 0.6)
}

func TestGenerateRuleByArticleCaseInsensitive(t *testing.T) {
	// Scenario: rule article BOX-33 fires on line article box-33.
	prd := product("Коробка для пиццы")
	rule := models.MatchingRule{ID: uuid.New(), Article: "BOX-33", ProductID: prd.ID}
	line := models.Line{Name: "коробки", Article: "box-33"}

	cands := Generate(line, []models.Product{prd}, []models.MatchingRule{rule}, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, prd.ID, cands[0].ProductID)
	assert.Equal(t, 0.9, cands[0].Score)
	assert.Equal(t, models.SourceRule, cands[0].Source)
}

func TestGenerateRuleBySynonymSubstring(t *testing.T) {
	prd := product("Мука пшеничная в/с")
	rule := models.MatchingRule{ID: uuid.New(), Synonym: "мука пшеничная", ProductID: prd.ID}
	line := models.Line{Name: "Мука пшеничная высший сорт 2кг"}

	cands := Generate(line, []models.Product{prd}, []models.MatchingRule{rule}, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, models.SourceRule, cands[0].Source)
}

func TestGenerateRuleSynonymContainsLineName(t *testing.T) {
	// The substring check works in both directions.
	prd := product("Мука пшеничная в/с")
	rule := models.MatchingRule{ID: uuid.New(), Synonym: "мука пшеничная высший сорт", ProductID: prd.ID}
	line := models.Line{Name: "Мука пшеничная"}

	cands := Generate(line, []models.Product{prd}, []models.MatchingRule{rule}, DefaultOptions())
	require.NotEmpty(t, cands)
	assert.Equal(t, models.SourceRule, cands[0].Source)
}

func TestGenerateShortSynonymNeverFires(t *testing.T) {
	prd := product("Носки")
	rule := models.MatchingRule{ID: uuid.New(), Synonym: "но", ProductID: prd.ID}
	line := models.Line{Name: "Вино столовое"}

	cands := Generate(line, []models.Product{prd}, []models.MatchingRule{rule}, DefaultOptions())
	assert.Empty(t, cands)
}

func TestGenerateRuleProductMissingFromCatalog(t *testing.T) {
	rule := models.MatchingRule{ID: uuid.New(), Barcode: "123", ProductID: uuid.New()}
	line := models.Line{Name: "что-то", Barcode: "123"}

	cands := Generate(line, nil, []models.MatchingRule{rule}, DefaultOptions())
	assert.Empty(t, cands)
}

func TestGenerateDeduplicatesByProduct(t *testing.T) {
	// Barcode, article and name all point at the same product; only
	// the strongest signal survives.
	prd := product("Сыр Моцарелла 45%", withBarcode("4601234000017"), withArticle("CHZ-45"))
	line := models.Line{Name: "Сыр Моцарелла 45%", Barcode: "4601234000017", Article: "chz-45"}

	cands := Generate(line, []models.Product{prd}, nil, DefaultOptions())
	require.Len(t, cands, 1)
	assert.Equal(t, 1.0, cands[0].Score)
	assert.Equal(t, models.SourceBarcode, cands[0].Source)
}

func TestGenerateSortedDescendingNoDuplicates(t *testing.T) {
	catalog := []models.Product{
		product("Молоко деревенское 1л"),
		product("Молоко", withBarcode("111")),
		product("Молоко топлёное", withArticle("MLK-2")),
	}
	line := models.Line{Name: "Молоко деревенское 1л", Barcode: "111", Article: "mlk-2"}

	cands := Generate(line, catalog, nil, DefaultOptions())
	require.NotEmpty(t, cands)

	seen := map[uuid.UUID]bool{}
	for i, c := range cands {
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
		assert.False(t, seen[c.ProductID], "duplicate product in candidates")
		seen[c.ProductID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, cands[i-1].Score, c.Score)
		}
	}
}

func TestGenerateTruncatesToTopK(t *testing.T) {
	var catalog []models.Product
	for i := 0; i < 12; i++ {
		catalog = append(catalog, product(fmt.Sprintf("товар %d", i), withSynonyms("соус для пиццы")))
	}
	line := models.Line{Name: "Соус для пиццы"}

	cands := Generate(line, catalog, nil, DefaultOptions())
	assert.Len(t, cands, 8)
}

func TestGenerateTieBreakFollowsCatalogOrder(t *testing.T) {
	a := product("первый", withSynonyms("соус для пиццы"))
	b := product("второй", withSynonyms("соус для пиццы"))
	line := models.Line{Name: "Соус для пиццы"}

	for i := 0; i < 5; i++ {
		cands := Generate(line, []models.Product{a, b}, nil, DefaultOptions())
		require.Len(t, cands, 2)
		assert.Equal(t, a.ID, cands[0].ProductID)
		assert.Equal(t, b.ID, cands[1].ProductID)
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	line := models.Line{Name: "Соус для пиццы", Barcode: "123"}
	assert.Empty(t, Generate(line, nil, nil, DefaultOptions()))
}

func TestGenerateNoSignalAboveCutoff(t *testing.T) {
	catalog := []models.Product{product("Гвозди строительные 100мм")}
	line := models.Line{Name: "Молоко деревенское"}

	assert.Empty(t, Generate(line, catalog, nil, DefaultOptions()))
}

func TestDisputed(t *testing.T) {
	t.Run("different high-confidence sources at equal score", func(t *testing.T) {
		a := product("Товар А", withBarcode("4601234000017"))
		b := product("Соус для пиццы")
		line := models.Line{Name: "Соус для пиццы", Barcode: "4601234000017"}

		cands := Generate(line, []models.Product{a, b}, nil, DefaultOptions())
		require.Len(t, cands, 2)
		assert.True(t, Disputed(cands))
	})

	t.Run("single candidate is never disputed", func(t *testing.T) {
		a := product("Товар А", withBarcode("4601234000017"))
		line := models.Line{Name: "другое", Barcode: "4601234000017"}

		cands := Generate(line, []models.Product{a}, nil, DefaultOptions())
		assert.False(t, Disputed(cands))
	})

	t.Run("clear winner is not disputed", func(t *testing.T) {
		a := product("Товар А", withBarcode("4601234000017"))
		b := product("Товар Б")
		rule := models.MatchingRule{ID: uuid.New(), Synonym: "соус для пиццы", ProductID: b.ID}
		line := models.Line{Name: "Соус для пиццы", Barcode: "4601234000017"}

		cands := Generate(line, []models.Product{a, b}, []models.MatchingRule{rule}, DefaultOptions())
		require.Len(t, cands, 2)
		// 1.0 barcode vs 0.9 rule differ by more than the margin.
		assert.False(t, Disputed(cands))
	})
}
