package generate

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/proxdocs/apidoc2openapi/internal/apitree"
)

// Config carries everything that differs between the product variants
// sharing this pipeline. It is constructed once per run and read-only
// afterwards.
type Config struct {
	API          string // variant key, e.g. "pve"
	Title        string
	Description  string
	Version      string
	ServerName   string // human name used in the servers block
	DefaultPort  int
	ServerPath   string // base path appended to the server URL
	ContactEmail string

	AuthSchemes map[string]*openapi3.SecurityScheme
	Security    openapi3.SecurityRequirements

	// TagMapping maps path prefixes (without leading slash) to tag
	// names. Longest prefix wins; unmatched paths fall back to the
	// title-cased first segment.
	TagMapping map[string]string

	// SharedSchemas are emitted into components.schemas verbatim.
	SharedSchemas openapi3.Schemas

	// PathParamSchemas maps well-known path parameter names to shared
	// schema component names.
	PathParamSchemas map[string]string
}

// Variants lists the built-in product variant keys.
func Variants() []string { return []string{"pve", "pbs"} }

// ConfigFor returns the built-in configuration for a variant key.
func ConfigFor(api string) (*Config, error) {
	switch strings.ToLower(strings.TrimSpace(api)) {
	case "pve":
		return PVEConfig(), nil
	case "pbs":
		return PBSConfig(), nil
	default:
		return nil, fmt.Errorf("unknown API variant %q (allowed: %s)", api, strings.Join(Variants(), ", "))
	}
}

// PVEConfig is the Proxmox Virtual Environment variant.
func PVEConfig() *Config {
	return &Config{
		API:        "pve",
		Title:      "Proxmox VE API",
		ServerName: "Proxmox VE Server",
		Description: "Complete Proxmox Virtual Environment API specification for managing " +
			"virtualized infrastructure: virtual machines, LXC containers, storage backends, " +
			"virtual networks and firewall rules, multi-node clusters, access control, " +
			"backup and restore, and monitoring. The API supports both token-based " +
			"authentication and session-based authentication with CSRF protection.",
		Version:      "8.0.0",
		DefaultPort:  8006,
		ServerPath:   "/api2/json",
		ContactEmail: "support@proxmox.com",
		AuthSchemes: map[string]*openapi3.SecurityScheme{
			"ProxmoxApiToken": {
				Type:        "apiKey",
				In:          "header",
				Name:        "Authorization",
				Description: "API token authentication. Format: PVEAPIToken=USER@REALM!TOKENID=UUID",
			},
			"ProxmoxSessionCookie": {
				Type:        "apiKey",
				In:          "cookie",
				Name:        "PVEAuthCookie",
				Description: "Session cookie authentication obtained from /access/ticket",
			},
			"ProxmoxCSRFToken": {
				Type:        "apiKey",
				In:          "header",
				Name:        "CSRFPreventionToken",
				Description: "CSRF prevention token required for state-changing operations when using cookie auth",
			},
		},
		Security: openapi3.SecurityRequirements{
			{"ProxmoxApiToken": {}},
			{"ProxmoxSessionCookie": {}, "ProxmoxCSRFToken": {}},
		},
		TagMapping: map[string]string{
			"nodes":   "Nodes",
			"cluster": "Cluster",
			"access":  "Access Control",
			"storage": "Storage",
			"pools":   "Resource Pools",
			"version": "System Info",
		},
		SharedSchemas: sharedSchemas(false),
		PathParamSchemas: map[string]string{
			"vmid":    "ProxmoxVmId",
			"ctid":    "ProxmoxVmId",
			"node":    "ProxmoxNodeId",
			"storage": "ProxmoxStorageId",
			"userid":  "ProxmoxUserId",
			"poolid":  "ProxmoxResourceName",
			"realm":   "ProxmoxResourceName",
			"group":   "ProxmoxResourceName",
			"role":    "ProxmoxResourceName",
		},
	}
}

// PBSConfig is the Proxmox Backup Server variant.
func PBSConfig() *Config {
	return &Config{
		API:        "pbs",
		Title:      "Proxmox Backup Server API",
		ServerName: "Proxmox Backup Server",
		Description: "Complete Proxmox Backup Server API specification for data protection " +
			"and backup management: backup jobs, datastore management, access control, " +
			"sync and replication, prune and garbage collection, client-side encryption, " +
			"and monitoring. The API supports token-based authentication with CSRF protection.",
		Version:      "3.0.0",
		DefaultPort:  8007,
		ServerPath:   "",
		ContactEmail: "support@proxmox.com",
		AuthSchemes: map[string]*openapi3.SecurityScheme{
			"ProxmoxApiToken": {
				Type:        "apiKey",
				In:          "header",
				Name:        "Authorization",
				Description: "API token authentication. Format: PBSAPIToken=USER@REALM!TOKENID=UUID",
			},
			"ProxmoxCSRFToken": {
				Type:        "apiKey",
				In:          "header",
				Name:        "CSRFPreventionToken",
				Description: "CSRF prevention token required for state-changing operations",
			},
		},
		Security: openapi3.SecurityRequirements{
			{"ProxmoxApiToken": {}, "ProxmoxCSRFToken": {}},
		},
		TagMapping: map[string]string{
			"access":    "Access Control",
			"admin":     "Administration",
			"backup":    "Backup Operations",
			"config":    "Configuration",
			"datastore": "Data Store Management",
			"status":    "Status & Monitoring",
		},
		SharedSchemas: sharedSchemas(true),
		PathParamSchemas: map[string]string{
			"vmid":      "ProxmoxVmId",
			"ctid":      "ProxmoxVmId",
			"node":      "ProxmoxNodeId",
			"storage":   "ProxmoxStorageId",
			"userid":    "ProxmoxUserId",
			"poolid":    "ProxmoxResourceName",
			"realm":     "ProxmoxResourceName",
			"group":     "ProxmoxResourceName",
			"role":      "ProxmoxResourceName",
			"datastore": "ProxmoxDatastoreName",
			"store":     "ProxmoxDatastoreName",
			"backup-id": "ProxmoxBackupId",
			"backup_id": "ProxmoxBackupId",
			"digest":    "ProxmoxSha256",
			"checksum":  "ProxmoxSha256",
		},
	}
}

const (
	patternNodeID       = `^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`
	patternUserID       = `^[^@]+@[^@]+$`
	patternResourceName = `^[A-Za-z0-9_][A-Za-z0-9._\-]*$`
	patternResourceOpt  = `^(?:[A-Za-z0-9_][A-Za-z0-9._\-]*)$`
	patternSha256       = `^[a-f0-9]{64}$`
	patternStorageID    = `^[A-Za-z][A-Za-z0-9\-\_]+$`
	patternUPID         = `^UPID:[^:]+:[0-9A-F]+:[^:]*:[^:]+:[^:]*:[^:]*:$`
)

// sharedSchemas builds the fixed component schemas every generated
// document carries: the standard response envelopes and the common
// identifier formats. PBS has a few extra identifier schemas.
func sharedSchemas(pbs bool) openapi3.Schemas {
	schemas := openapi3.Schemas{
		"ProxmoxError": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "object",
			Description: "Standard Proxmox API error response",
			Properties: openapi3.Schemas{
				"data": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        "object",
					Nullable:    true,
					Description: "Additional error context data",
				}),
				"errors": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        "object",
					Description: "Detailed error messages keyed by field or error type",
					AdditionalProperties: openapi3.AdditionalProperties{
						Schema: openapi3.NewSchemaRef("", &openapi3.Schema{Type: "string"}),
					},
				}),
				"message": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        "string",
					Description: "Human-readable error message",
				}),
			},
		}),
		"ProxmoxTask": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "object",
			Description: "Proxmox async task response",
			Required:    []string{"data"},
			Properties: openapi3.Schemas{
				"data": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        "string",
					Description: "Task ID for tracking async operations",
					Pattern:     patternUPID,
				}),
			},
		}),
		"ProxmoxSuccess": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "object",
			Description: "Standard success response",
			Properties: openapi3.Schemas{
				"data": openapi3.NewSchemaRef("", &openapi3.Schema{
					Description: "Response data (varies by endpoint)",
				}),
				"success": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        "boolean",
					Description: "Operation success indicator",
				}),
			},
		}),
		"ProxmoxNodeId": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "Proxmox node identifier following DNS hostname standards",
			Pattern:     patternNodeID,
			MinLength:   1,
			MaxLength:   openapi3.Uint64Ptr(63),
			Example:     "pve-node-01",
		}),
		"ProxmoxVmId": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "integer",
			Description: "Virtual machine or container ID",
			Min:         openapi3.Float64Ptr(1),
			Max:         openapi3.Float64Ptr(999999999),
			Example:     100,
		}),
		"ProxmoxStorageId": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "Storage identifier",
			Pattern:     patternStorageID,
			MinLength:   1,
			MaxLength:   openapi3.Uint64Ptr(64),
			Example:     "local-lvm",
		}),
		"ProxmoxEmail": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "Email address format",
			Pattern:     patternUserID,
			Format:      "email",
			Example:     "admin@example.com",
		}),
		"ProxmoxUserId": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "User ID in format user@realm",
			Pattern:     patternUserID,
			Example:     "admin@pve",
		}),
		"ProxmoxResourceName": openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "General resource name following Proxmox naming conventions",
			Pattern:     patternResourceName,
			MinLength:   1,
			MaxLength:   openapi3.Uint64Ptr(64),
			Example:     "my-resource",
		}),
	}

	if pbs {
		schemas["ProxmoxSha256"] = openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "SHA256 hash for backup integrity verification",
			Pattern:     patternSha256,
			MinLength:   64,
			MaxLength:   openapi3.Uint64Ptr(64),
			Example:     "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		})
		schemas["ProxmoxBackupId"] = openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "Backup ID following PBS naming conventions",
			Pattern:     patternResourceOpt,
			Example:     "vm-100-disk-0",
		})
		schemas["ProxmoxDatastoreName"] = openapi3.NewSchemaRef("", &openapi3.Schema{
			Type:        "string",
			Description: "Datastore name in PBS",
			Pattern:     patternResourceName,
			MinLength:   1,
			MaxLength:   openapi3.Uint64Ptr(32),
			Example:     "backup-storage",
		})
	}

	return schemas
}

// matchSharedSchema reports the shared component a field should
// reference instead of an inline schema, based on the published
// identifier conventions. Empty when no convention matches.
func (c *Config) matchSharedSchema(f *apitree.FieldSpec) string {
	desc := strings.ToLower(f.Description)

	if f.Pattern == patternNodeID {
		return "ProxmoxNodeId"
	}
	if f.Pattern == patternUserID {
		if strings.Contains(desc, "user") {
			return "ProxmoxUserId"
		}
		if strings.Contains(desc, "email") {
			return "ProxmoxEmail"
		}
	}
	if f.Type == "integer" && f.Minimum != nil && *f.Minimum == 1 &&
		f.Maximum != nil && *f.Maximum > 100000 {
		return "ProxmoxVmId"
	}
	if f.Pattern == patternSha256 && c.API == "pbs" {
		return "ProxmoxSha256"
	}
	if f.Pattern == patternResourceName || f.Pattern == patternResourceOpt {
		if c.API == "pbs" && (strings.Contains(desc, "datastore") || strings.Contains(desc, "store")) {
			return "ProxmoxDatastoreName"
		}
		if c.API == "pbs" && strings.Contains(desc, "backup") {
			return "ProxmoxBackupId"
		}
		if strings.Contains(desc, "storage") {
			return "ProxmoxStorageId"
		}
		return "ProxmoxResourceName"
	}
	return ""
}

// servers builds the servers block with a {host} variable and the
// variant's default port.
func (c *Config) servers() openapi3.Servers {
	return openapi3.Servers{
		&openapi3.Server{
			URL:         fmt.Sprintf("https://{host}:%d%s", c.DefaultPort, c.ServerPath),
			Description: c.ServerName,
			Variables: map[string]*openapi3.ServerVariable{
				"host": {
					Default:     "localhost",
					Description: c.ServerName + " hostname or IP address",
				},
			},
		},
	}
}

func (c *Config) info() *openapi3.Info {
	return &openapi3.Info{
		Title:       c.Title,
		Description: c.Description,
		Version:     c.Version,
		Contact: &openapi3.Contact{
			Name:  "Proxmox Support",
			URL:   "https://www.proxmox.com",
			Email: c.ContactEmail,
		},
		License: &openapi3.License{
			Name: "AGPL-3.0",
			URL:  "https://www.gnu.org/licenses/agpl-3.0.html",
		},
	}
}

var errorStatuses = []struct {
	code string
	desc string
}{
	{"400", "Bad Request - Invalid input parameters or malformed request"},
	{"401", "Unauthorized - Authentication required or invalid credentials"},
	{"403", "Forbidden - Insufficient permissions for the requested operation"},
	{"404", "Not Found - Requested resource does not exist"},
	{"422", "Unprocessable Entity - Request is well-formed but contains semantic errors"},
	{"500", "Internal Server Error - Unexpected server error"},
	{"503", "Service Unavailable - Service temporarily unavailable"},
}

// errorResponses builds the standardized error response set, all
// referencing the shared ProxmoxError schema.
func errorResponses() map[string]*openapi3.ResponseRef {
	out := make(map[string]*openapi3.ResponseRef, len(errorStatuses))
	for _, st := range errorStatuses {
		desc := st.desc
		out[st.code] = &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content: openapi3.NewContentWithJSONSchemaRef(
					openapi3.NewSchemaRef("#/components/schemas/ProxmoxError", nil)),
			},
		}
	}
	return out
}
