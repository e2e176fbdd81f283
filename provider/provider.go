// Package provider implements the external search capabilities queried
// by keyword: Google Custom Search, Bing Web Search, and an HTML scraper
// for the BOAMP public tender board, composed into a priority fallback
// chain.
package provider

import (
	"context"
	"time"
)

// tenderQualifier narrows web searches to procurement announcements.
const tenderQualifier = ` "appel d'offres" OR "avis général" OR "appel à projet" OR "accord cadre"`

// Result is a normalized candidate lead from any provider.
type Result struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// Provider is one external search capability.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Configured reports whether the provider has the credentials it
	// needs. Unconfigured providers are skipped by the chain.
	Configured() bool

	// Search runs a keyword query. The caller bounds ctx.
	Search(ctx context.Context, keywords string) ([]Result, error)

	// Status probes reachability of the provider's endpoint.
	Status(ctx context.Context) error
}

// SiteInfo describes an external tender board in the provider catalog.
type SiteInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BaseURL     string `json:"baseUrl"`
	SearchURL   string `json:"searchUrl"`
}

// Catalog lists the tender boards BMS knows about. Only BOAMP has a
// scraping integration; the rest are surfaced for manual consultation
// and reachability probes.
func Catalog() []SiteInfo {
	return []SiteInfo{
		{Key: "BOAMP", Name: "BOAMP", Description: "Bulletin Officiel des Annonces de Marchés Publics", BaseURL: "https://www.boamp.fr", SearchURL: "https://www.boamp.fr/recherche"},
		{Key: "Legifrance", Name: "Legifrance", Description: "Journal Officiel et consultations publiques", BaseURL: "https://www.legifrance.gouv.fr", SearchURL: "https://www.legifrance.gouv.fr/recherche"},
		{Key: "EuropeanTenders", Name: "European Tenders", Description: "Appels d'offres européens", BaseURL: "https://www.european-tenders.com", SearchURL: "https://www.european-tenders.com/search"},
		{Key: "J360", Name: "J360", Description: "Plateforme d'opportunités internationales", BaseURL: "https://www.j360.info", SearchURL: "https://www.j360.info/search"},
		{Key: "DevelopmentAid", Name: "DevelopmentAid", Description: "Opportunités de développement international", BaseURL: "https://www.developmentaid.org", SearchURL: "https://www.developmentaid.org/tenders/search"},
		{Key: "BM", Name: "BM", Description: "Banque Mondiale - Appels d'offres", BaseURL: "https://www.worldbank.org", SearchURL: "https://www.worldbank.org/en/projects-operations/procurement"},
		{Key: "ReliefWeb", Name: "ReliefWeb", Description: "Opportunités humanitaires et d'urgence", BaseURL: "https://reliefweb.int", SearchURL: "https://reliefweb.int/opportunities"},
		{Key: "CoordinationSud", Name: "Coordination Sud", Description: "Réseau des ONG françaises", BaseURL: "https://www.coordinationsud.org", SearchURL: "https://www.coordinationsud.org/opportunites"},
	}
}
