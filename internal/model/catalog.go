package model

// PricingPlan is a purchasable tier of a marketplace model.
type PricingPlan struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	MonthlyPrice float64  `json:"monthly_price" yaml:"monthly_price"`
	YearlyPrice  float64  `json:"yearly_price" yaml:"yearly_price"`
	Currency     string   `json:"currency" yaml:"currency"`
	RequestQuota int64    `json:"request_quota" yaml:"request_quota"`
	Features     []string `json:"features,omitempty" yaml:"features"`
}

// CatalogModel is a model listed in the marketplace.
type CatalogModel struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Provider    string        `json:"provider" yaml:"provider"`
	Category    string        `json:"category" yaml:"category"`
	Description string        `json:"description" yaml:"description"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags"`
	Rating      float64       `json:"rating" yaml:"rating"`
	Downloads   int64         `json:"downloads" yaml:"downloads"`
	Plans       []PricingPlan `json:"plans,omitempty" yaml:"plans"`
	Docs        *ModelAPIDoc  `json:"-" yaml:"docs"`
}

// Plan looks up one of the model's pricing plans.
func (m *CatalogModel) Plan(id string) (PricingPlan, bool) {
	for _, p := range m.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return PricingPlan{}, false
}

// Dataset is a dataset listed in the marketplace.
type Dataset struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Provider    string   `json:"provider" yaml:"provider"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
	Format      string   `json:"format" yaml:"format"`
	SizeBytes   int64    `json:"size_bytes" yaml:"size_bytes"`
	Records     int64    `json:"records" yaml:"records"`
	License     string   `json:"license" yaml:"license"`
	Price       float64  `json:"price" yaml:"price"`
}

// ModelAPIDoc documents how to call a model's API.
type ModelAPIDoc struct {
	ModelID    string        `json:"model_id" yaml:"-"`
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	AuthScheme string        `json:"auth_scheme" yaml:"auth_scheme"`
	Endpoints  []APIEndpoint `json:"endpoints" yaml:"endpoints"`
}

// APIEndpoint documents a single model API endpoint.
type APIEndpoint struct {
	Method          string         `json:"method" yaml:"method"`
	Path            string         `json:"path" yaml:"path"`
	Description     string         `json:"description" yaml:"description"`
	Parameters      []APIParameter `json:"parameters,omitempty" yaml:"parameters"`
	RequestExample  string         `json:"request_example,omitempty" yaml:"request_example"`
	ResponseExample string         `json:"response_example,omitempty" yaml:"response_example"`
}

// APIParameter documents an endpoint parameter.
type APIParameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description" yaml:"description"`
}

// Landing holds the static marketing sections.
type Landing struct {
	Hero      HeroSection    `json:"hero" yaml:"hero"`
	Features  []Feature      `json:"features" yaml:"features"`
	Community CommunityStats `json:"community" yaml:"community"`
}

// HeroSection is the landing page headline.
type HeroSection struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle"`
	CTA      string `json:"cta" yaml:"cta"`
}

// Feature is one marketing feature tile.
type Feature struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
}

// CommunityStats are the headline community numbers.
type CommunityStats struct {
	Developers  int64 `json:"developers" yaml:"developers"`
	Models      int64 `json:"models" yaml:"models"`
	Datasets    int64 `json:"datasets" yaml:"datasets"`
	APICallsDay int64 `json:"api_calls_per_day" yaml:"api_calls_per_day"`
}
