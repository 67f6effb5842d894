package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nmang004/atlas-sub000/internal/models"
	"github.com/nmang004/atlas-sub000/internal/utils"
)

// Input limits for prompt authoring.
const (
	MaxTitleLength   = 200
	MaxContentLength = 50000
	MaxTags          = 20
	MaxTagLength     = 50
	MaxVariables     = 50
	MaxVariants      = 5
	MaxSelectOptions = 50
)

// PromptInput is the authoring payload for create and update. A nil
// Variables or Variants slice on update leaves those children untouched;
// an empty slice clears them.
type PromptInput struct {
	Title            string          `json:"title" validate:"required,max=200"`
	Content          string          `json:"content" validate:"required,max=50000"`
	CategoryID       *uint           `json:"category_id"`
	Tags             []string        `json:"tags" validate:"max=20,dive,max=50"`
	ModelVersion     *string         `json:"model_version" validate:"omitempty,max=100"`
	DataRequirements *string         `json:"data_requirements" validate:"omitempty,max=50000"`
	ReviewChecklist  *string         `json:"review_checklist" validate:"omitempty,max=50000"`
	Variables        []VariableInput `json:"variables" validate:"max=50,dive"`
	Variants         []VariantInput  `json:"variants" validate:"max=5,dive"`
}

type VariableInput struct {
	Key         string              `json:"key" validate:"required,max=100,varkey"`
	Label       string              `json:"label" validate:"max=200"`
	Type        models.VariableType `json:"type" validate:"omitempty,oneof=text textarea select"`
	Placeholder *string             `json:"placeholder" validate:"omitempty,max=500"`
	IsRequired  bool                `json:"is_required"`
	Options     []string            `json:"options" validate:"max=50,dive,max=200"`
	OrderIndex  *int                `json:"order_index" validate:"omitempty,min=0"`
}

type VariantInput struct {
	VariantType models.VariantType `json:"variant_type" validate:"required,oneof=basic advanced custom"`
	Name        string             `json:"name" validate:"required,max=100"`
	Content     string             `json:"content" validate:"required,max=50000"`
	Description *string            `json:"description" validate:"omitempty,max=500"`
	OrderIndex  *int               `json:"order_index" validate:"omitempty,min=0"`
}

var variableKeyPattern = regexp.MustCompile(`^\w+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(utils.JSONTagName)
	if err := v.RegisterValidation("varkey", func(fl validator.FieldLevel) bool {
		return variableKeyPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidatePromptInput normalizes input in place and checks every limit.
func ValidatePromptInput(input *PromptInput) error {
	input.normalize()

	if err := validate.Struct(input); err != nil {
		return validationErrorFrom(err)
	}

	seen := make(map[string]int, len(input.Variables))
	for i, v := range input.Variables {
		if first, dup := seen[v.Key]; dup {
			return newValidationError(
				fmt.Sprintf("variables[%d].key", i),
				fmt.Sprintf("Variable key '%s' is already defined at variables[%d]", v.Key, first),
				"unique key",
				v.Key,
			)
		}
		seen[v.Key] = i
	}
	return nil
}

func (in *PromptInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ModelVersion = trimOptional(in.ModelVersion)
	in.DataRequirements = trimOptional(in.DataRequirements)
	in.ReviewChecklist = trimOptional(in.ReviewChecklist)
	in.Tags = normalizeTags(in.Tags)

	for i := range in.Variables {
		v := &in.Variables[i]
		v.Key = strings.TrimSpace(v.Key)
		v.Label = strings.TrimSpace(v.Label)
		v.Placeholder = trimOptional(v.Placeholder)
		if v.Type == "" {
			v.Type = models.VariableTypeText
		}
		// Options only mean something for select inputs.
		if v.Type != models.VariableTypeSelect {
			v.Options = nil
		}
	}
	for i := range in.Variants {
		v := &in.Variants[i]
		v.Name = strings.TrimSpace(v.Name)
		v.Description = trimOptional(v.Description)
	}
}

// normalizeTags trims, drops blanks and removes duplicates, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
