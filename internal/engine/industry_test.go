package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resumescore/internal/types"
)

func TestClassifyIndustry(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Industry
	}{
		{
			name: "software engineering",
			text: "Software developer building backend APIs with microservices",
			want: types.IndustrySoftwareEngineering,
		},
		{
			name: "case insensitive",
			text: "SOFTWARE DEVELOPER",
			want: types.IndustrySoftwareEngineering,
		},
		{
			name: "data science",
			text: "Data scientist building machine learning models and statistical analytics",
			want: types.IndustryDataScience,
		},
		{
			name: "product management",
			text: "Product manager owning the roadmap with stakeholder alignment",
			want: types.IndustryProductManagement,
		},
		{
			name: "no keywords",
			text: "I enjoy gardening and hiking",
			want: types.IndustryGeneral,
		},
		{
			name: "empty",
			text: "",
			want: types.IndustryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIndustry(tt.text))
		})
	}
}

func TestClassifyTieKeepsFirstDeclared(t *testing.T) {
	profiles := []industryProfile{
		{industry: "first", keywords: []string{"alpha"}},
		{industry: "second", keywords: []string{"beta"}},
	}

	assert.Equal(t, types.Industry("first"), classifyAgainst(profiles, "alpha beta"))
	assert.Equal(t, types.Industry("second"), classifyAgainst(profiles, "beta"))
	assert.Equal(t, types.IndustryGeneral, classifyAgainst(nil, "alpha"))
}
