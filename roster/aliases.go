// ABOUTME: Canonical member fields and their accepted header aliases
// ABOUTME: Aliases are data: defaults can be replaced per field from a YAML file
package roster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field is a canonical member attribute.
type Field string

const (
	FieldBirthDate Field = "birth_date"
	FieldFullName  Field = "full_name"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
)

// Fields lists the canonical fields in resolution order.
var Fields = []Field{FieldBirthDate, FieldFullName, FieldEmail, FieldPhone}

// Required reports whether a table without this field is rejected.
func (f Field) Required() bool {
	return f == FieldBirthDate || f == FieldFullName
}

// Label is the user-facing column name.
func (f Field) Label() string {
	switch f {
	case FieldBirthDate:
		return "Data de Nascimento"
	case FieldFullName:
		return "Nome"
	case FieldEmail:
		return "E-mail"
	case FieldPhone:
		return "Celular/WhatsApp"
	}
	return string(f)
}

// Aliases maps each field to header names in priority order.
type Aliases map[Field][]string

// DefaultAliases returns the built-in alias lists.
func DefaultAliases() Aliases {
	return Aliases{
		FieldBirthDate: {"data_de_nascimento", "data_nascimento", "data_nasc", "nascimento", "dt_nasc", "dt_nascimento"},
		FieldFullName:  {"nome_do_filiado", "nome", "nome_completo"},
		FieldEmail:     {"e-mail", "email", "e_mail"},
		FieldPhone:     {"celular_whatsapp", "celular", "telefone", "telefone_whatsapp", "whatsapp"},
	}
}

type aliasFile struct {
	BirthDate []string `yaml:"birth_date"`
	FullName  []string `yaml:"full_name"`
	Email     []string `yaml:"email"`
	Phone     []string `yaml:"phone"`
}

// LoadAliases reads alias overrides from a YAML file. A field listed in the
// file replaces that field's default list; other fields keep the defaults.
func LoadAliases(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}

	var file aliasFile
	if err := node.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode alias file: %w", err)
	}

	present := presentKeys(&node)
	aliases := DefaultAliases()
	overrides := map[Field][]string{
		FieldBirthDate: file.BirthDate,
		FieldFullName:  file.FullName,
		FieldEmail:     file.Email,
		FieldPhone:     file.Phone,
	}

	for field, list := range overrides {
		if !present[string(field)] {
			continue
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("alias list for %s must not be empty", field)
		}
		aliases[field] = list
	}

	return aliases, nil
}

// presentKeys returns the top-level mapping keys of a YAML document.
func presentKeys(doc *yaml.Node) map[string]bool {
	keys := make(map[string]bool)
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return keys
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return keys
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys[m.Content[i].Value] = true
	}
	return keys
}
