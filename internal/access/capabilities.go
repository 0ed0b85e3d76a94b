// Package access resolves which features a role may reach. Navigation and
// route guards both go through Capabilities; nothing else decides.
package access

import (
	"github.com/jgirmay/radlearn/internal/learner/models"
)

type Feature string

const (
	FeatureDashboard       Feature = "dashboard"
	FeatureCurriculum      Feature = "curriculum"
	FeatureQuiz            Feature = "quiz"
	FeatureCalculators     Feature = "calculators"
	FeatureSensorDemo      Feature = "sensor_demo"
	FeatureLocationPrompts Feature = "location_prompts"
	FeatureAITutor         Feature = "ai_tutor"
	FeatureImageStudio     Feature = "image_studio"
	FeatureDoseRegistry    Feature = "dose_registry"
	FeaturePatientGuide    Feature = "patient_guide"
	FeatureActivityLog     Feature = "activity_log"
	FeatureAdminConsole    Feature = "admin_console"
)

// AllFeatures in navigation order.
var AllFeatures = []Feature{
	FeatureDashboard,
	FeatureCurriculum,
	FeatureQuiz,
	FeatureCalculators,
	FeatureSensorDemo,
	FeatureLocationPrompts,
	FeatureAITutor,
	FeatureImageStudio,
	FeatureDoseRegistry,
	FeaturePatientGuide,
	FeatureActivityLog,
	FeatureAdminConsole,
}

var roleFeatures = map[models.Role][]Feature{
	models.RoleStudent: {
		FeatureDashboard, FeatureCurriculum, FeatureQuiz, FeatureCalculators,
		FeatureSensorDemo, FeatureLocationPrompts, FeatureAITutor, FeatureImageStudio,
	},
	models.RolePatient: {
		FeatureDashboard, FeaturePatientGuide, FeatureAITutor, FeatureLocationPrompts,
	},
	models.RolePublic: {
		FeatureDashboard, FeaturePatientGuide, FeatureCurriculum, FeatureAITutor,
	},
	models.RoleOfficer: {
		FeatureDashboard, FeatureCurriculum, FeatureQuiz, FeatureCalculators,
		FeatureSensorDemo, FeatureLocationPrompts, FeatureAITutor, FeatureImageStudio,
		FeatureDoseRegistry,
	},
	models.RoleAdmin: AllFeatures,
}

// FeatureSet is an unordered set of features.
type FeatureSet map[Feature]struct{}

func (fs FeatureSet) Has(f Feature) bool {
	_, ok := fs[f]
	return ok
}

// List returns the members in navigation order.
func (fs FeatureSet) List() []Feature {
	out := make([]Feature, 0, len(fs))
	for _, f := range AllFeatures {
		if fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Capabilities returns the features enabled for role. Unknown roles get
// nothing.
func Capabilities(role models.Role) FeatureSet {
	fs := make(FeatureSet)
	for _, f := range roleFeatures[role] {
		fs[f] = struct{}{}
	}
	return fs
}

// Allows reports whether profile may use f. A nil profile is treated as an
// anonymous public visitor without entitlement. Image generation also needs
// the pro entitlement.
func Allows(profile *models.UserProfile, f Feature) bool {
	role, pro := models.RolePublic, false
	if profile != nil {
		role, pro = profile.Role, profile.IsPro
	}
	if !Capabilities(role).Has(f) {
		return false
	}
	if f == FeatureImageStudio && !pro {
		return false
	}
	return true
}

// Destination is one navigation entry.
type Destination struct {
	Feature Feature `json:"feature"`
	Path    string  `json:"path"`
	Title   string  `json:"title"`
}

var destinations = map[Feature]Destination{
	FeatureDashboard:       {FeatureDashboard, "/dashboard", "Dashboard"},
	FeatureCurriculum:      {FeatureCurriculum, "/curriculum", "Curriculum"},
	FeatureQuiz:            {FeatureQuiz, "/quiz", "Quiz Bank"},
	FeatureCalculators:     {FeatureCalculators, "/calculators", "Dose Calculators"},
	FeatureSensorDemo:      {FeatureSensorDemo, "/sensor", "Radiation Sensor Demo"},
	FeatureLocationPrompts: {FeatureLocationPrompts, "/nearby", "Nearby Imaging Help"},
	FeatureAITutor:         {FeatureAITutor, "/tutor", "AI Tutor"},
	FeatureImageStudio:     {FeatureImageStudio, "/studio", "Image Studio"},
	FeatureDoseRegistry:    {FeatureDoseRegistry, "/dose-registry", "Dose Registry"},
	FeaturePatientGuide:    {FeaturePatientGuide, "/patients", "Patient Guide"},
	FeatureActivityLog:     {FeatureActivityLog, "/activity", "Activity Log"},
	FeatureAdminConsole:    {FeatureAdminConsole, "/admin", "Admin Console"},
}

// Navigation lists the destinations profile may open, in order.
func Navigation(profile *models.UserProfile) []Destination {
	out := make([]Destination, 0, len(AllFeatures))
	for _, f := range AllFeatures {
		if Allows(profile, f) {
			out = append(out, destinations[f])
		}
	}
	return out
}
