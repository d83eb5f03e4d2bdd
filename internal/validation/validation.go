// Package validation renders the team write policy into a server-side
// validate_doc_update design document and installs it into the shared
// database. The policy itself lives in an embedded YAML table so role rules
// can be reviewed without reading generated JavaScript.
package validation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inkwave/teamsync-backend/internal/docstore"
	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

// DesignDocID is where the rendered policy lives in the shared database.
const DesignDocID = "_design/team_validation"

//go:embed policy.yaml
var policyYAML []byte

type RolePolicy struct {
	Name string `yaml:"name"`
	// AllowPrefixes, when set, is exhaustive: the role may write only ids
	// under these prefixes.
	AllowPrefixes []string `yaml:"allow_prefixes"`
	// DenyIDs and DenyPrefixes carve exceptions out of an otherwise-open role.
	DenyIDs      []string `yaml:"deny_ids"`
	DenyPrefixes []string `yaml:"deny_prefixes"`
}

type Policy struct {
	BypassRoles []string     `yaml:"bypass_roles"`
	Roles       []RolePolicy `yaml:"roles"`
}

// LoadPolicy parses the embedded policy table.
func LoadPolicy() (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(policyYAML, &p); err != nil {
		return nil, fmt.Errorf("parse policy table: %w", err)
	}
	if len(p.BypassRoles) == 0 {
		return nil, fmt.Errorf("policy table: no bypass roles")
	}
	return &p, nil
}

// DesignDocument is the CouchDB design document carrying the validator.
type DesignDocument struct {
	ID                string `json:"_id"`
	Rev               string `json:"_rev,omitempty"`
	ValidateDocUpdate string `json:"validate_doc_update"`
}

// BuildDesignDocument renders the policy into a validate_doc_update function.
func BuildDesignDocument(p *Policy) *DesignDocument {
	var b strings.Builder
	b.WriteString("function(newDoc, oldDoc, userCtx) {\n")
	b.WriteString("  var roles = userCtx.roles || [];\n")
	b.WriteString("  function hasRole(r) { return roles.indexOf(r) !== -1; }\n")
	b.WriteString("  function startsWith(s, p) { return s.lastIndexOf(p, 0) === 0; }\n")

	conds := make([]string, 0, len(p.BypassRoles))
	for _, role := range p.BypassRoles {
		conds = append(conds, "hasRole("+jsString(role)+")")
	}
	b.WriteString("  if (" + strings.Join(conds, " || ") + ") { return; }\n")

	for _, role := range p.Roles {
		b.WriteString("  if (hasRole(" + jsString(role.Name) + ")) {\n")
		for _, id := range role.DenyIDs {
			b.WriteString("    if (newDoc._id === " + jsString(id) + ") {\n")
			b.WriteString("      throw({forbidden: " + jsString(role.Name+" may not write "+id) + "});\n")
			b.WriteString("    }\n")
		}
		for _, prefix := range role.DenyPrefixes {
			b.WriteString("    if (startsWith(newDoc._id, " + jsString(prefix) + ")) {\n")
			b.WriteString("      throw({forbidden: " + jsString(role.Name+" may not write "+prefix+"*") + "});\n")
			b.WriteString("    }\n")
		}
		if len(role.AllowPrefixes) > 0 {
			allowConds := make([]string, 0, len(role.AllowPrefixes))
			for _, prefix := range role.AllowPrefixes {
				allowConds = append(allowConds, "startsWith(newDoc._id, "+jsString(prefix)+")")
			}
			b.WriteString("    if (!(" + strings.Join(allowConds, " || ") + ")) {\n")
			b.WriteString("      throw({forbidden: " + jsString(role.Name+" has read-only access") + "});\n")
			b.WriteString("    }\n")
		}
		b.WriteString("    return;\n")
		b.WriteString("  }\n")
	}

	b.WriteString("  throw({forbidden: \"not a team member\"});\n")
	b.WriteString("}\n")

	return &DesignDocument{ID: DesignDocID, ValidateDocUpdate: b.String()}
}

func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// Installer pushes and removes the policy artifact.
type Installer struct {
	docs docstore.Store
	log  *logger.Logger
}

func NewInstaller(docs docstore.Store, log *logger.Logger) *Installer {
	return &Installer{docs: docs, log: log.With("service", "PolicyInstaller")}
}

// Install writes the rendered design document, replacing any existing one.
func (i *Installer) Install(ctx context.Context) error {
	policy, err := LoadPolicy()
	if err != nil {
		return err
	}
	doc := BuildDesignDocument(policy)

	var existing DesignDocument
	ok, err := i.docs.Get(ctx, DesignDocID, &existing)
	if err != nil {
		return fmt.Errorf("install policy: %w", err)
	}
	if ok {
		doc.Rev = existing.Rev
	}
	if _, err := i.docs.Put(ctx, doc); err != nil {
		return fmt.Errorf("install policy: %w", err)
	}
	i.log.Info("Write policy installed", "design_doc", DesignDocID)
	return nil
}

// Uninstall removes the design document. Absent is not an error.
func (i *Installer) Uninstall(ctx context.Context) error {
	var existing DesignDocument
	ok, err := i.docs.Get(ctx, DesignDocID, &existing)
	if err != nil {
		return fmt.Errorf("uninstall policy: %w", err)
	}
	if !ok {
		return nil
	}
	if err := i.docs.Delete(ctx, DesignDocID, existing.Rev); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return fmt.Errorf("uninstall policy: %w", err)
	}
	i.log.Info("Write policy removed", "design_doc", DesignDocID)
	return nil
}
