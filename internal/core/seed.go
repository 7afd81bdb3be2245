package core

import "github.com/valter-silva-au/goal-board/pkg/models"

// DefaultProjectKey is the project selected on a fresh board.
const DefaultProjectKey = models.ProjectAstrology

// DefaultProjects returns a fresh copy of the seed board. Callers own the
// returned map; nothing is shared between calls.
func DefaultProjects() map[models.ProjectKey]models.Project {
	return map[models.ProjectKey]models.Project{
		models.ProjectAstrology: {
			Name: "Astrology App",
			Goal: "Ship a paid astrology companion app with 1,000 subscribers",
			Tasks: []models.Task{
				{
					ID: 1, Title: "Validate demand with a landing page", Phase: "Discovery",
					TimeEstimate: "1 week",
					Reasoning:    "Cheapest way to learn whether anyone will pay",
					Details:      "Run a waitlist page with two pricing variants",
					Unlocks:      "Pricing decision",
				},
				{
					ID: 2, Title: "Choose ephemeris data provider", Phase: "Discovery",
					TimeEstimate: "3 days",
					Reasoning:    "Chart accuracy depends on the planetary data source",
					BlockedBy:    "Landing page results",
					Unlocks:      "Chart engine",
				},
				{
					ID: 3, Title: "Build natal chart engine", Phase: "Build",
					TimeEstimate: "3 weeks",
					Details:      "House systems, aspects and transit calculations",
					BlockedBy:    "Ephemeris provider",
					Unlocks:      "Daily horoscope feed",
				},
				{
					ID: 4, Title: "Daily personalised horoscope feed", Phase: "Build",
					TimeEstimate: "2 weeks",
					BlockedBy:    "Chart engine",
				},
				{
					ID: 5, Title: "Public beta launch", Phase: "Launch",
					TimeEstimate: models.MilestoneEstimate,
					Reasoning:    "First revenue and real retention data",
					Unlocks:      "Subscriber growth",
				},
			},
		},
		models.ProjectAtemaBio: {
			Name: "Atema Bio",
			Goal: "Close a seed round on the strength of preclinical data",
			Tasks: []models.Task{
				{
					ID: 1, Title: "Finalise target product profile", Phase: "Science",
					TimeEstimate: "2 weeks",
					Reasoning:    "Investors ask for the TPP before anything else",
					Unlocks:      "Study design",
				},
				{
					ID: 2, Title: "Design in vivo efficacy study", Phase: "Science",
					TimeEstimate: "1 week",
					BlockedBy:    "Target product profile",
				},
				{
					ID: 3, Title: "Preclinical efficacy readout", Phase: "Science",
					TimeEstimate: models.MilestoneEstimate,
					Details:      "Primary endpoint against standard of care",
					Unlocks:      "Data room",
				},
				{
					ID: 4, Title: "Assemble investor data room", Phase: "Fundraising",
					TimeEstimate: "1 week",
					BlockedBy:    "Efficacy readout",
				},
				{
					ID: 5, Title: "Run seed investor meetings", Phase: "Fundraising",
					TimeEstimate: "6 weeks",
					Unlocks:      "Term sheet",
				},
				{
					ID: 6, Title: "Sign seed term sheet", Phase: "Fundraising",
					TimeEstimate: models.MilestoneEstimate,
				},
			},
		},
	}
}
