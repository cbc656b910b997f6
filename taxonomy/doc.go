// Package taxonomy defines the core types of the command taxonomy: domains,
// resources, actions, and the commands synthesized from them.
//
// A taxonomy is hierarchical: a Domain groups Resources, a Resource is acted
// on by Actions, and a Command is one concrete (domain, resource, action)
// triple. Discovery sources produce AnalysisResult candidates which are
// merged, validated, and finally installed into a registry as Domains.
//
// The package also provides structural validation (CheckDomain) and the
// ValidationResult type shared by the validator and the registry.
package taxonomy
