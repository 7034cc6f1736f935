package analysis

import (
	"math"

	"github.com/dvloznov/finsight/internal/domain"
	"github.com/jbrukh/bayesian"
)

// CategoryRules is the keyword fallback used when no model is trained.
var CategoryRules = []Rule{
	{Kind: KeywordRule, Name: domain.CategorySalaries, Keywords: []string{"salary", "payroll", "wages", "compensation"}},
	{Kind: KeywordRule, Name: domain.CategoryCloudServices, Keywords: []string{"aws", "azure", "google cloud", "gcp", "digitalocean", "heroku", "cloud"}},
	{Kind: KeywordRule, Name: domain.CategorySoftware, Keywords: []string{"github", "slack", "figma", "notion", "zoom", "subscription", "saas"}},
	{Kind: KeywordRule, Name: domain.CategoryMarketing, Keywords: []string{"ads", "advertising", "marketing", "campaign", "seo", "social media"}},
	{Kind: KeywordRule, Name: domain.CategoryOffice, Keywords: []string{"rent", "office", "utilities", "electricity", "internet", "cleaning"}},
	{Kind: KeywordRule, Name: domain.CategoryProfessionalServices, Keywords: []string{"legal", "accounting", "consultant", "lawyer", "ca"}},
	{Kind: KeywordRule, Name: domain.CategoryHR, Keywords: []string{"recruitment", "training", "team building", "hr", "hiring"}},
	{Kind: KeywordRule, Name: domain.CategoryContractors, Keywords: []string{"freelance", "contractor", "consultant"}},
	{Kind: KeywordRule, Name: domain.CategoryRevenue, Keywords: []string{"payment", "revenue", "income", "subscription", "client"}},
}

// Defaults for the categorizer.
const (
	DefaultMinTrainingExamples = 10
	DefaultMaxFeatures         = 100
	DefaultFallbackConfidence  = 0.5
)

// CategorizerOptions tunes training and the keyword fallback.
type CategorizerOptions struct {
	MinTrainingExamples int
	MaxFeatures         int
	FallbackConfidence  float64
}

// DefaultCategorizerOptions returns the stock settings.
func DefaultCategorizerOptions() CategorizerOptions {
	return CategorizerOptions{
		MinTrainingExamples: DefaultMinTrainingExamples,
		MaxFeatures:         DefaultMaxFeatures,
		FallbackConfidence:  DefaultFallbackConfidence,
	}
}

// Prediction is a category with its estimated probability.
type Prediction struct {
	Category   string
	Confidence float64
	Trained    bool
}

// Model is a fitted vectorizer plus a multinomial naive Bayes classifier over
// the fixed category vocabulary.
type Model struct {
	vectorizer *Vectorizer
	classifier *bayesian.Classifier
	classes    []bayesian.Class
}

// Categorizer assigns categories to descriptions. It owns at most one model,
// which is rebuilt on every successful Train call and never shared.
type Categorizer struct {
	opts  CategorizerOptions
	model *Model
}

// NewCategorizer returns an untrained categorizer.
func NewCategorizer(opts CategorizerOptions) *Categorizer {
	if opts.MinTrainingExamples <= 0 {
		opts.MinTrainingExamples = DefaultMinTrainingExamples
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = DefaultMaxFeatures
	}
	if opts.FallbackConfidence <= 0 {
		opts.FallbackConfidence = DefaultFallbackConfidence
	}
	return &Categorizer{opts: opts}
}

// Trained reports whether a model is available.
func (c *Categorizer) Trained() bool {
	return c.model != nil
}

// Train fits a fresh model on labelled transactions. Examples whose category
// is outside the vocabulary are ignored. With fewer than the minimum number
// of usable examples it does nothing and returns false.
func (c *Categorizer) Train(examples []domain.Transaction) bool {
	var docs []string
	var labels []string
	for _, tx := range examples {
		if !domain.IsKnownCategory(tx.Category) {
			continue
		}
		docs = append(docs, tx.Description)
		labels = append(labels, tx.Category)
	}
	if len(docs) < c.opts.MinTrainingExamples {
		return false
	}

	vec := FitVectorizer(docs, c.opts.MaxFeatures)
	if vec.Size() == 0 {
		return false
	}

	classes := make([]bayesian.Class, len(domain.Categories))
	for i, name := range domain.Categories {
		classes[i] = bayesian.Class(name)
	}
	classifier := bayesian.NewClassifier(classes...)
	for i, doc := range docs {
		classifier.Learn(vec.Transform(doc), bayesian.Class(labels[i]))
	}

	c.model = &Model{
		vectorizer: vec,
		classifier: classifier,
		classes:    classes,
	}
	return true
}

// Predict returns a category for description. Without a model the keyword
// rules decide, defaulting to Operations, at the fixed fallback confidence.
func (c *Categorizer) Predict(description string) Prediction {
	if c.model == nil {
		return Prediction{
			Category:   keywordCategory(description),
			Confidence: c.opts.FallbackConfidence,
		}
	}

	m := c.model
	scores, best, _ := m.classifier.LogScores(m.vectorizer.Transform(description))
	return Prediction{
		Category:   string(m.classes[best]),
		Confidence: softmaxAt(scores, best),
		Trained:    true,
	}
}

func keywordCategory(description string) string {
	for _, rule := range CategoryRules {
		if name, ok := rule.Match(description); ok {
			return name
		}
	}
	return domain.CategoryOperations
}

// softmaxAt converts log scores into the probability of index i.
// Classes never seen in training score -Inf and get probability zero.
func softmaxAt(scores []float64, i int) float64 {
	max := math.Inf(-1)
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if math.IsInf(max, -1) {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - max)
	}
	return math.Exp(scores[i]-max) / sum
}
