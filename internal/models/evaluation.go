package models

// Evaluation is one evaluated page with its decision and diagnostics.
type Evaluation struct {
	UUID              string  `gorm:"primaryKey;type:varchar(36)" json:"uuid"`
	Folder            string  `json:"folder"`
	URL               string  `json:"url"`
	Status            string  `json:"status"`
	Category          int     `json:"category"`
	Target            string  `json:"target"`
	HasLogo           bool    `json:"has_logo"`
	BrandInTargetList bool    `json:"brand_in_targetlist"`
	FoundKnowledge    bool    `json:"found_knowledge"`
	DiscoveryBranch   string  `json:"discovery_branch"`
	DetectorSecs      float64 `json:"detector_secs"`
	DiscoverySecs     float64 `json:"discovery_secs"`
	InteractAlgoSecs  float64 `json:"interaction_algo_secs"`
	InteractTotalSecs float64 `json:"interaction_total_secs"`
	InteractSuccess   bool    `json:"interaction_success"`
	RedirectEvasion   bool    `json:"redirection_evasion"`
	NoVerification    bool    `json:"no_verification"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
}
