package reasoner

import "github.com/nodeadmin/alcomo/ontology"

// ConceptID is an integer identifier for a named concept.
type ConceptID uint32

// RoleID is an integer identifier for an object or data property (role).
type RoleID uint32

const (
	Top    ConceptID = 0 // owl:Thing
	Bottom ConceptID = 1 // owl:Nothing
)

// Suffixes of the artificial concepts standing for a property's domain
// and range.
const (
	DomainSuffix = "#DOMAIN"
	RangeSuffix  = "#RANGE"
)

// SymbolTable maps string IRIs/names to integer IDs for the reasoner's inner loop.
type SymbolTable struct {
	conceptToID map[string]ConceptID
	idToConcept []string
	roleToID    map[string]RoleID
	idToRole    []string
}

func NewSymbolTable() *SymbolTable {
	concepts := make([]string, 2, 1024)
	concepts[Top] = ontology.Thing
	concepts[Bottom] = ontology.Nothing

	st := &SymbolTable{
		conceptToID: make(map[string]ConceptID, 1024),
		idToConcept: concepts,
		roleToID:    make(map[string]RoleID, 32),
		idToRole:    make([]string, 0, 32),
	}
	st.conceptToID[ontology.Thing] = Top
	st.conceptToID[ontology.Nothing] = Bottom
	return st
}

// Clone returns an independent copy; interning into the copy leaves st
// unchanged.
func (st *SymbolTable) Clone() *SymbolTable {
	c := &SymbolTable{
		conceptToID: make(map[string]ConceptID, len(st.conceptToID)),
		idToConcept: append([]string(nil), st.idToConcept...),
		roleToID:    make(map[string]RoleID, len(st.roleToID)),
		idToRole:    append([]string(nil), st.idToRole...),
	}
	for k, v := range st.conceptToID {
		c.conceptToID[k] = v
	}
	for k, v := range st.roleToID {
		c.roleToID[k] = v
	}
	return c
}

// InternConcept returns the ConceptID for the given name, creating one if needed.
func (st *SymbolTable) InternConcept(name string) ConceptID {
	if id, ok := st.conceptToID[name]; ok {
		return id
	}
	id := ConceptID(len(st.idToConcept))
	st.conceptToID[name] = id
	st.idToConcept = append(st.idToConcept, name)
	return id
}

// InternRole returns the RoleID for the given name, creating one if needed.
func (st *SymbolTable) InternRole(name string) RoleID {
	if id, ok := st.roleToID[name]; ok {
		return id
	}
	id := RoleID(len(st.idToRole))
	st.roleToID[name] = id
	st.idToRole = append(st.idToRole, name)
	return id
}

// Concept looks up a concept without creating it.
func (st *SymbolTable) Concept(name string) (ConceptID, bool) {
	id, ok := st.conceptToID[name]
	return id, ok
}

// Role looks up a role without creating it.
func (st *SymbolTable) Role(name string) (RoleID, bool) {
	id, ok := st.roleToID[name]
	return id, ok
}

func (st *SymbolTable) ConceptCount() int { return len(st.idToConcept) }
func (st *SymbolTable) RoleCount() int    { return len(st.idToRole) }

// ConceptName returns the string name for a ConceptID.
func (st *SymbolTable) ConceptName(id ConceptID) string {
	if int(id) < len(st.idToConcept) {
		return st.idToConcept[id]
	}
	return ""
}

// RoleName returns the string name for a RoleID.
func (st *SymbolTable) RoleName(id RoleID) string {
	if int(id) < len(st.idToRole) {
		return st.idToRole[id]
	}
	return ""
}

// FreshConcept creates a new anonymous concept with a generated name.
func (st *SymbolTable) FreshConcept() ConceptID {
	id := ConceptID(len(st.idToConcept))
	st.idToConcept = append(st.idToConcept, "")
	return id
}
