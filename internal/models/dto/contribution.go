package dto

type ContributionRequest struct {
	Contribution string `json:"contribution"`
}

type ContributionsResponse struct {
	Contributions []string `json:"contributions"`
}
