package core

import (
	"strings"

	"golang.org/x/text/language"
)

// defaultLocale is used when the requested locale has no template for a key.
const defaultLocale = "en"

// questionTemplates holds question texts per language, keyed by
// "<kind>.<entity>.<detail>". Placeholders: {topic}, {entity}, {quote},
// {a}, {b}, {options}.
var questionTemplates = map[string]map[string]string{
	"en": {
		"completeness.table.columns":        "Which columns should the {entity} in {topic} show?",
		"completeness.table.actions":        "What actions can users take on each row of the {entity} in {topic}?",
		"completeness.table.sorting":        "Should the {entity} in {topic} be sortable, and by which columns?",
		"completeness.form.fields":          "Which fields should the {entity} in {topic} contain?",
		"completeness.form.validation":      "What validation rules apply to the {entity} in {topic}?",
		"completeness.form.submit":          "What happens when the {entity} in {topic} is submitted?",
		"completeness.button.action":        "What should happen when the {entity} in {topic} is clicked?",
		"completeness.button.placement":     "Where should the {entity} in {topic} be placed?",
		"completeness.list.items":           "What information should each item of the {entity} in {topic} show?",
		"completeness.list.sorting":         "In what order should the {entity} in {topic} be sorted?",
		"completeness.list.empty_state":     "What should the {entity} in {topic} show when it is empty?",
		"completeness.search.scope":         "Which fields should search in {topic} look at?",
		"completeness.search.results":       "How should search results in {topic} be presented?",
		"completeness.filter.criteria":      "Which criteria should the {entity} in {topic} filter by?",
		"completeness.login.method":         "How should users sign in for {topic} (password, SSO, social login)?",
		"completeness.login.failure":        "What happens after a failed sign-in attempt in {topic}?",
		"completeness.export.format":        "Which file formats should the {entity} in {topic} support?",
		"completeness.export.scope":         "Should the {entity} in {topic} include all records or only the selected ones?",
		"completeness.chart.type":           "What kind of chart should {topic} use?",
		"completeness.chart.data":           "Which data should the {entity} in {topic} plot?",
		"completeness.notification.trigger": "What event should trigger the {entity} in {topic}?",
		"completeness.notification.channel": "Through which channel should the {entity} in {topic} be delivered?",
		"completeness.report.contents":      "What should the {entity} in {topic} include?",
		"completeness.report.schedule":      "How often should the {entity} in {topic} be produced?",
		"completeness.dashboard.widgets":    "Which widgets or metrics should the {entity} show?",
		"completeness.upload.file_types":    "Which file types should the {entity} in {topic} accept?",
		"completeness.upload.size_limit":    "What is the maximum file size for the {entity} in {topic}?",
		"specificity.aesthetic":             "\"{quote}\" is open to interpretation. What should it look like concretely?",
		"specificity.validation":            "\"{quote}\" mentions validation. Which exact rules should apply?",
		"specificity.performance":           "\"{quote}\" asks for speed. What response time is acceptable?",
		"specificity.open_ended":            "\"{quote}\" leaves the list open. What is the complete list?",
		"specificity.usability":             "\"{quote}\" is subjective. What would make it easy to use for you?",
		"contradiction.generic":             "Two statements in {topic} disagree: \"{a}\" versus \"{b}\". Which one is right?",
		"ambiguity.generic":                 "Which area does \"{quote}\" belong to: {options}?",
		"followup.multiplicity":             "How many can there be at most in {topic}, and what happens at that limit?",
		"followup.conditionality":           "In {topic}, what should happen when that condition is not met?",
		"followup.destructive":              "Should that action in {topic} ask for confirmation, and can it be undone?",
		"followup.permission":               "Which roles may do this in {topic}, and what do other users see?",
		"followup.deferred":                 "Should this part of {topic} be in the first release or tracked as a separate story?",
	},
	"es": {
		"completeness.table.columns":    "¿Qué columnas debe mostrar la {entity} de {topic}?",
		"completeness.table.actions":    "¿Qué acciones pueden realizar los usuarios en cada fila de la {entity} de {topic}?",
		"completeness.table.sorting":    "¿Se debe poder ordenar la {entity} de {topic}? ¿Por qué columnas?",
		"completeness.form.fields":      "¿Qué campos debe contener el {entity} de {topic}?",
		"completeness.form.validation":  "¿Qué reglas de validación aplican al {entity} de {topic}?",
		"completeness.form.submit":      "¿Qué ocurre al enviar el {entity} de {topic}?",
		"completeness.button.action":    "¿Qué debe ocurrir al pulsar el {entity} de {topic}?",
		"completeness.button.placement": "¿Dónde debe ubicarse el {entity} de {topic}?",
		"completeness.login.method":     "¿Cómo deben iniciar sesión los usuarios en {topic}?",
		"completeness.export.format":    "¿Qué formatos de archivo debe admitir la {entity} de {topic}?",
		"specificity.aesthetic":         "\"{quote}\" es ambiguo. ¿Cómo debería verse exactamente?",
		"specificity.validation":        "\"{quote}\" menciona validación. ¿Qué reglas exactas aplican?",
		"contradiction.generic":         "Dos afirmaciones en {topic} no coinciden: \"{a}\" frente a \"{b}\". ¿Cuál es la correcta?",
		"followup.destructive":          "¿Esa acción en {topic} debe pedir confirmación? ¿Se puede deshacer?",
	},
}

// TemplateSet renders localized question texts.
type TemplateSet struct {
	locale string
}

var supportedLocales = []language.Tag{language.English, language.Spanish}

// NewTemplateSet picks the closest supported language for locale.
func NewTemplateSet(locale string) *TemplateSet {
	tag, err := language.Parse(locale)
	if err != nil {
		return &TemplateSet{locale: defaultLocale}
	}
	matcher := language.NewMatcher(supportedLocales)
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return &TemplateSet{locale: defaultLocale}
	}
	base, _ := supportedLocales[idx].Base()
	return &TemplateSet{locale: base.String()}
}

// Locale returns the matched language.
func (ts *TemplateSet) Locale() string {
	return ts.locale
}

// Render fills the template for key. It falls back to the default language
// and reports false when neither language has the key.
func (ts *TemplateSet) Render(key string, vars map[string]string) (string, bool) {
	tpl, ok := questionTemplates[ts.locale][key]
	if !ok {
		tpl, ok = questionTemplates[defaultLocale][key]
	}
	if !ok {
		return "", false
	}
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range sortedKeys(vars) {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tpl), true
}
