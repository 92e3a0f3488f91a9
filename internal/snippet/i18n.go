package snippet

import (
	"fmt"
	"strings"
)

// Language is a supported UI language.
type Language string

const (
	French  Language = "fr"
	English Language = "en"
)

// DefaultLanguage is used when none is configured.
const DefaultLanguage = French

// Languages lists the supported languages.
var Languages = []Language{French, English}

// ParseLanguage accepts "fr" or "en" in any case; empty means DefaultLanguage.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return DefaultLanguage, nil
	case French, English:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// Translations holds the user-visible strings of one language.
type Translations struct {
	Title         string
	Subtitle      string
	Export        string
	ExportJSON    string
	ExportText    string
	Import        string
	ExportSuccess string
	ImportSuccess string // {count}
	ImportError   string
	Form          struct {
		TitlePlaceholder    string
		ContentPlaceholder  string
		CategoryPlaceholder string
		AddButton           string
	}
	Search struct {
		Placeholder   string
		AllCategories string
	}
	Snippet struct {
		Copy          string
		Delete        string
		Edit          string
		Save          string
		Cancel        string
		Today         string
		Yesterday     string
		DaysAgo       string // {count}
		WeeksAgo      string // {count} {s}
		MonthsAgo     string // {count} {s}
		YearsAgo      string // {count} {s}
		Uncategorized string
		Created       string
		Edited        string
	}
	Empty struct {
		Title    string
		Subtitle string
	}
}

var translations = map[Language]*Translations{
	French:  french(),
	English: english(),
}

// T returns the strings for lang, falling back to DefaultLanguage.
func T(lang Language) *Translations {
	if t, ok := translations[lang]; ok {
		return t
	}
	return translations[DefaultLanguage]
}

// UncategorizedLabels returns the uncategorized label in every language.
func UncategorizedLabels() []string {
	out := make([]string, 0, len(Languages))
	for _, l := range Languages {
		out = append(out, T(l).Snippet.Uncategorized)
	}
	return out
}

func french() *Translations {
	t := &Translations{
		Title:         "Snippet Manager",
		Subtitle:      "Gérez vos snippets de code facilement",
		Export:        "Exporter",
		ExportJSON:    "Exporter en JSON",
		ExportText:    "Exporter en texte",
		Import:        "Importer",
		ExportSuccess: "Snippets exportés avec succès",
		ImportSuccess: "{count} snippet(s) importé(s) avec succès",
		ImportError:   "Erreur lors de l'importation du fichier",
	}
	t.Form.TitlePlaceholder = "Titre du snippet"
	t.Form.ContentPlaceholder = "Collez votre code ou texte ici..."
	t.Form.CategoryPlaceholder = "Catégorie (optionnel)"
	t.Form.AddButton = "Ajouter"
	t.Search.Placeholder = "Rechercher dans les snippets..."
	t.Search.AllCategories = "Toutes catégories"
	t.Snippet.Copy = "Copier"
	t.Snippet.Delete = "Supprimer"
	t.Snippet.Edit = "Modifier"
	t.Snippet.Save = "Enregistrer"
	t.Snippet.Cancel = "Annuler"
	t.Snippet.Today = "Aujourd'hui"
	t.Snippet.Yesterday = "Hier"
	t.Snippet.DaysAgo = "Il y a {count} jours"
	t.Snippet.WeeksAgo = "Il y a {count} semaine{s}"
	t.Snippet.MonthsAgo = "Il y a {count} mois"
	t.Snippet.YearsAgo = "Il y a {count} an{s}"
	t.Snippet.Uncategorized = "Sans catégorie"
	t.Snippet.Created = "Créé"
	t.Snippet.Edited = "modifié"
	t.Empty.Title = "Aucun snippet trouvé"
	t.Empty.Subtitle = "Ajoutez votre premier snippet ci-dessus"
	return t
}

func english() *Translations {
	t := &Translations{
		Title:         "Snippet Manager",
		Subtitle:      "Manage your code snippets easily",
		Export:        "Export",
		ExportJSON:    "Export JSON",
		ExportText:    "Export Text",
		Import:        "Import",
		ExportSuccess: "Snippets exported successfully",
		ImportSuccess: "{count} snippet(s) imported successfully",
		ImportError:   "Error importing file",
	}
	t.Form.TitlePlaceholder = "Snippet title"
	t.Form.ContentPlaceholder = "Paste your code or text here..."
	t.Form.CategoryPlaceholder = "Category (optional)"
	t.Form.AddButton = "Add"
	t.Search.Placeholder = "Search in snippets..."
	t.Search.AllCategories = "All categories"
	t.Snippet.Copy = "Copy"
	t.Snippet.Delete = "Delete"
	t.Snippet.Edit = "Edit"
	t.Snippet.Save = "Save"
	t.Snippet.Cancel = "Cancel"
	t.Snippet.Today = "Today"
	t.Snippet.Yesterday = "Yesterday"
	t.Snippet.DaysAgo = "{count} days ago"
	t.Snippet.WeeksAgo = "{count} week{s} ago"
	t.Snippet.MonthsAgo = "{count} month{s} ago"
	t.Snippet.YearsAgo = "{count} year{s} ago"
	t.Snippet.Uncategorized = "Uncategorized"
	t.Snippet.Created = "Created"
	t.Snippet.Edited = "edited"
	t.Empty.Title = "No snippets found"
	t.Empty.Subtitle = "Add your first snippet above"
	return t
}

// Fill fills {count} and {s} placeholders.
func Fill(template string, count int) string {
	plural := ""
	if count > 1 {
		plural = "s"
	}
	return strings.NewReplacer("{count}", fmt.Sprint(count), "{s}", plural).Replace(template)
}
