package statements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sorgerlab/indra/ontology"
)

// Modification asserts that an enzyme adds (or removes) a post-
// translational modification on a substrate, optionally at a specific
// residue and position. A nil Enz means the catalyst is unknown.
type Modification struct {
	Base
	Mod      string `json:"-"` // modification subtype; "" for generic
	Remove   bool   `json:"-"` // demodification
	Enz      *Agent `json:"enz,omitempty"`
	Sub      *Agent `json:"sub"`
	Residue  string `json:"residue,omitempty"`
	Position string `json:"position,omitempty"`
}

// NewModification builds a modification statement. mod may be empty for a
// generic, unspecified modification.
func NewModification(mod string, remove bool, enz, sub *Agent, residue, position string, ev ...*Evidence) *Modification {
	return &Modification{
		Base: NewBase(ev...), Mod: mod, Remove: remove,
		Enz: enz, Sub: sub, Residue: residue, Position: position,
	}
}

func (m *Modification) Type() string {
	tag := m.Mod
	if tag == "" {
		tag = "modification"
	}
	if m.Remove {
		return "de" + tag
	}
	return tag
}

func (m *Modification) AgentList() []*Agent { return []*Agent{m.Enz, m.Sub} }

func (m *Modification) SetAgentList(agents []*Agent) error {
	if len(agents) != 2 {
		return fmt.Errorf("%s takes 2 agents, got %d", m.Type(), len(agents))
	}
	m.Enz, m.Sub = agents[0], agents[1]
	return nil
}

func (m *Modification) MatchesKey() string {
	return fmt.Sprintf("(%s, %s, %s, %s, %s)",
		m.Type(), agentKey(m.Enz), agentKey(m.Sub), m.Residue, m.Position)
}

func (m *Modification) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	if !TypeCompatible(m.Type(), other.Type()) {
		return false, nil
	}
	o, ok := other.(*Modification)
	if !ok || m.Remove != o.Remove {
		return false, nil
	}
	enzRef, err := agentRefinement(m.Enz, o.Enz, ont)
	if err != nil {
		return false, err
	}
	if !enzRef {
		return false, nil
	}
	if m.Sub == nil || o.Sub == nil {
		return false, nil
	}
	subRef, err := m.Sub.RefinementOf(o.Sub, ont)
	if err != nil {
		return false, err
	}
	if !subRef {
		return false, nil
	}
	if o.Residue != "" && m.Residue != o.Residue {
		return false, nil
	}
	if o.Position != "" && m.Position != o.Position {
		return false, nil
	}
	return true, nil
}

func (m *Modification) Contradicts(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Modification)
	if !ok || m.Remove == o.Remove || m.Mod != o.Mod {
		return false, nil
	}
	if m.Enz == nil || m.Sub == nil || o.Enz == nil || o.Sub == nil {
		return false, nil
	}
	match, err := entitiesComparable(m, o, ont)
	if err != nil || !match {
		return false, err
	}
	residueOK := m.Residue == o.Residue || m.Residue == "" || o.Residue == ""
	positionOK := m.Position == o.Position || m.Position == "" || o.Position == ""
	return residueOK && positionOK, nil
}

func (m *Modification) Equal(other Statement) bool {
	o, ok := other.(*Modification)
	return ok && m.MatchesKey() == o.MatchesKey()
}

func (m *Modification) Validate() error {
	if m.Sub == nil {
		return &MalformedStatementError{Type: m.Type(), Reason: "missing substrate"}
	}
	return nil
}

func (m *Modification) Clone() Statement {
	c := *m
	c.Base = m.cloneBase()
	c.Enz = m.Enz.Clone()
	c.Sub = m.Sub.Clone()
	return &c
}

func (m *Modification) String() string {
	return fmt.Sprintf("%s(%s, %s, %s, %s)", m.Type(), m.Enz, m.Sub, m.Residue, m.Position)
}

// SelfModification asserts that an enzyme modifies itself.
type SelfModification struct {
	Base
	Mod      string `json:"-"`
	Enz      *Agent `json:"enz"`
	Residue  string `json:"residue,omitempty"`
	Position string `json:"position,omitempty"`
}

// NewSelfModification builds a self-modification statement.
func NewSelfModification(mod string, enz *Agent, residue, position string, ev ...*Evidence) *SelfModification {
	return &SelfModification{Base: NewBase(ev...), Mod: mod, Enz: enz, Residue: residue, Position: position}
}

func (s *SelfModification) Type() string {
	if s.Mod == "" {
		return "selfmodification"
	}
	return "auto" + s.Mod
}

func (s *SelfModification) AgentList() []*Agent { return []*Agent{s.Enz} }

func (s *SelfModification) SetAgentList(agents []*Agent) error {
	if len(agents) != 1 {
		return fmt.Errorf("%s takes 1 agent, got %d", s.Type(), len(agents))
	}
	s.Enz = agents[0]
	return nil
}

func (s *SelfModification) MatchesKey() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", s.Type(), agentKey(s.Enz), s.Residue, s.Position)
}

func (s *SelfModification) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	if !TypeCompatible(s.Type(), other.Type()) {
		return false, nil
	}
	o, ok := other.(*SelfModification)
	if !ok {
		return false, nil
	}
	ref, err := agentRefinement(s.Enz, o.Enz, ont)
	if err != nil || !ref {
		return false, err
	}
	if o.Residue != "" && s.Residue != o.Residue {
		return false, nil
	}
	if o.Position != "" && s.Position != o.Position {
		return false, nil
	}
	return true, nil
}

func (s *SelfModification) Contradicts(Statement, ontology.Service) (bool, error) {
	return false, nil
}

func (s *SelfModification) Equal(other Statement) bool {
	o, ok := other.(*SelfModification)
	return ok && s.MatchesKey() == o.MatchesKey()
}

func (s *SelfModification) Validate() error {
	if s.Enz == nil {
		return &MalformedStatementError{Type: s.Type(), Reason: "missing enzyme"}
	}
	return nil
}

func (s *SelfModification) Clone() Statement {
	c := *s
	c.Base = s.cloneBase()
	c.Enz = s.Enz.Clone()
	return &c
}

// Regulation asserts that a subject activates or inhibits the activity of
// an object. ObjActivity names the regulated activity type; the generic
// value is "activity".
type Regulation struct {
	Base
	IsActivation bool   `json:"-"`
	Subj         *Agent `json:"subj"`
	Obj          *Agent `json:"obj"`
	ObjActivity  string `json:"obj_activity,omitempty"`
}

// NewActivation builds an activation statement.
func NewActivation(subj, obj *Agent, objActivity string, ev ...*Evidence) *Regulation {
	return &Regulation{Base: NewBase(ev...), IsActivation: true, Subj: subj, Obj: obj, ObjActivity: objActivity}
}

// NewInhibition builds an inhibition statement.
func NewInhibition(subj, obj *Agent, objActivity string, ev ...*Evidence) *Regulation {
	return &Regulation{Base: NewBase(ev...), IsActivation: false, Subj: subj, Obj: obj, ObjActivity: objActivity}
}

func (r *Regulation) Type() string {
	if r.IsActivation {
		return "activation"
	}
	return "inhibition"
}

func (r *Regulation) AgentList() []*Agent { return []*Agent{r.Subj, r.Obj} }

func (r *Regulation) SetAgentList(agents []*Agent) error {
	if len(agents) != 2 {
		return fmt.Errorf("%s takes 2 agents, got %d", r.Type(), len(agents))
	}
	r.Subj, r.Obj = agents[0], agents[1]
	return nil
}

func (r *Regulation) MatchesKey() string {
	return fmt.Sprintf("(%s, %s, %s, %s)",
		r.Type(), agentKey(r.Subj), agentKey(r.Obj), r.ObjActivity)
}

func (r *Regulation) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	if !TypeCompatible(r.Type(), other.Type()) {
		return false, nil
	}
	o, ok := other.(*Regulation)
	if !ok || r.IsActivation != o.IsActivation {
		return false, nil
	}
	subjRef, err := agentRefinement(r.Subj, o.Subj, ont)
	if err != nil || !subjRef {
		return false, err
	}
	if r.Obj == nil || o.Obj == nil {
		return false, nil
	}
	objRef, err := r.Obj.RefinementOf(o.Obj, ont)
	if err != nil || !objRef {
		return false, err
	}
	if r.ObjActivity == o.ObjActivity {
		return true, nil
	}
	return ont.IsA(ontology.ActivityNamespace, r.ObjActivity,
		ontology.ActivityNamespace, o.ObjActivity)
}

func (r *Regulation) Contradicts(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Regulation)
	if !ok || r.IsActivation == o.IsActivation {
		return false, nil
	}
	if r.Subj == nil || r.Obj == nil || o.Subj == nil || o.Obj == nil {
		return false, nil
	}
	return entitiesComparable(r, o, ont)
}

func (r *Regulation) Equal(other Statement) bool {
	o, ok := other.(*Regulation)
	return ok && r.MatchesKey() == o.MatchesKey()
}

func (r *Regulation) Validate() error {
	if r.Subj == nil || r.Obj == nil {
		return &MalformedStatementError{Type: r.Type(), Reason: "missing subject or object"}
	}
	return nil
}

func (r *Regulation) Clone() Statement {
	c := *r
	c.Base = r.cloneBase()
	c.Subj = r.Subj.Clone()
	c.Obj = r.Obj.Clone()
	return &c
}

func (r *Regulation) String() string {
	return fmt.Sprintf("%s(%s, %s)", r.Type(), r.Subj, r.Obj)
}

// RegulateAmount asserts that a subject increases or decreases the amount
// of an object. The subject may be nil when the regulator is unknown.
type RegulateAmount struct {
	Base
	IsIncrease bool   `json:"-"`
	Subj       *Agent `json:"subj,omitempty"`
	Obj        *Agent `json:"obj"`
}

// NewIncreaseAmount builds an amount-increase statement.
func NewIncreaseAmount(subj, obj *Agent, ev ...*Evidence) *RegulateAmount {
	return &RegulateAmount{Base: NewBase(ev...), IsIncrease: true, Subj: subj, Obj: obj}
}

// NewDecreaseAmount builds an amount-decrease statement.
func NewDecreaseAmount(subj, obj *Agent, ev ...*Evidence) *RegulateAmount {
	return &RegulateAmount{Base: NewBase(ev...), IsIncrease: false, Subj: subj, Obj: obj}
}

func (r *RegulateAmount) Type() string {
	if r.IsIncrease {
		return "increaseamount"
	}
	return "decreaseamount"
}

func (r *RegulateAmount) AgentList() []*Agent { return []*Agent{r.Subj, r.Obj} }

func (r *RegulateAmount) SetAgentList(agents []*Agent) error {
	if len(agents) != 2 {
		return fmt.Errorf("%s takes 2 agents, got %d", r.Type(), len(agents))
	}
	r.Subj, r.Obj = agents[0], agents[1]
	return nil
}

func (r *RegulateAmount) MatchesKey() string {
	return fmt.Sprintf("(%s, %s, %s)", r.Type(), agentKey(r.Subj), agentKey(r.Obj))
}

func (r *RegulateAmount) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	if !TypeCompatible(r.Type(), other.Type()) {
		return false, nil
	}
	o, ok := other.(*RegulateAmount)
	if !ok || r.IsIncrease != o.IsIncrease {
		return false, nil
	}
	subjRef, err := agentRefinement(r.Subj, o.Subj, ont)
	if err != nil || !subjRef {
		return false, err
	}
	if r.Obj == nil || o.Obj == nil {
		return false, nil
	}
	return r.Obj.RefinementOf(o.Obj, ont)
}

func (r *RegulateAmount) Contradicts(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*RegulateAmount)
	if !ok || r.IsIncrease == o.IsIncrease {
		return false, nil
	}
	if r.Subj == nil || r.Obj == nil || o.Subj == nil || o.Obj == nil {
		return false, nil
	}
	return entitiesComparable(r, o, ont)
}

func (r *RegulateAmount) Equal(other Statement) bool {
	o, ok := other.(*RegulateAmount)
	return ok && r.MatchesKey() == o.MatchesKey()
}

func (r *RegulateAmount) Validate() error {
	if r.Obj == nil {
		return &MalformedStatementError{Type: r.Type(), Reason: "missing object"}
	}
	return nil
}

func (r *RegulateAmount) Clone() Statement {
	c := *r
	c.Base = r.cloneBase()
	c.Subj = r.Subj.Clone()
	c.Obj = r.Obj.Clone()
	return &c
}

// Influence is a causal influence between two concepts in polarity-aware
// domains. Polarity values are +1, -1 or 0 for unknown.
type Influence struct {
	Base
	Subj         *Agent `json:"subj"`
	Obj          *Agent `json:"obj"`
	SubjPolarity int    `json:"subj_polarity,omitempty"`
	ObjPolarity  int    `json:"obj_polarity,omitempty"`
}

// NewInfluence builds a causal influence statement.
func NewInfluence(subj, obj *Agent, subjPol, objPol int, ev ...*Evidence) *Influence {
	return &Influence{Base: NewBase(ev...), Subj: subj, Obj: obj, SubjPolarity: subjPol, ObjPolarity: objPol}
}

func (inf *Influence) Type() string { return "influence" }

func (inf *Influence) AgentList() []*Agent { return []*Agent{inf.Subj, inf.Obj} }

func (inf *Influence) SetAgentList(agents []*Agent) error {
	if len(agents) != 2 {
		return fmt.Errorf("influence takes 2 agents, got %d", len(agents))
	}
	inf.Subj, inf.Obj = agents[0], agents[1]
	return nil
}

func (inf *Influence) MatchesKey() string {
	return fmt.Sprintf("(influence, %s, %s, %d, %d)",
		agentKey(inf.Subj), agentKey(inf.Obj), inf.SubjPolarity, inf.ObjPolarity)
}

func (inf *Influence) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Influence)
	if !ok {
		return false, nil
	}
	// Unknown polarity on the general side is refined by any polarity;
	// known polarities must match.
	if o.SubjPolarity != 0 && inf.SubjPolarity != o.SubjPolarity {
		return false, nil
	}
	if o.ObjPolarity != 0 && inf.ObjPolarity != o.ObjPolarity {
		return false, nil
	}
	subjRef, err := agentRefinement(inf.Subj, o.Subj, ont)
	if err != nil || !subjRef {
		return false, err
	}
	if inf.Obj == nil || o.Obj == nil {
		return false, nil
	}
	return inf.Obj.RefinementOf(o.Obj, ont)
}

// OverallPolarity is the product of the subject and object polarities, or
// 0 when either is unknown.
func (inf *Influence) OverallPolarity() int {
	return inf.SubjPolarity * inf.ObjPolarity
}

func (inf *Influence) Contradicts(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Influence)
	if !ok {
		return false, nil
	}
	p1, p2 := inf.OverallPolarity(), o.OverallPolarity()
	if p1 == 0 || p2 == 0 {
		return false, nil
	}
	match, err := entitiesComparable(inf, o, ont)
	if err != nil {
		return false, err
	}
	if match {
		return p1 == -p2, nil
	}
	// Same-polarity influences over opposite concepts also contradict,
	// e.g. "rainfall promotes crops" vs "drought promotes crops" where
	// rainfall is_opposite drought.
	sn1, si1, ok1 := inf.Subj.Grounding()
	sn2, si2, ok2 := o.Subj.Grounding()
	if !ok1 || !ok2 || !inf.Obj.EntityMatches(o.Obj) {
		return false, nil
	}
	opp, err := ont.IsOpposite(sn1, si1, sn2, si2)
	if err != nil {
		return false, err
	}
	return opp && p1 == p2, nil
}

func (inf *Influence) Equal(other Statement) bool {
	o, ok := other.(*Influence)
	return ok && inf.MatchesKey() == o.MatchesKey()
}

func (inf *Influence) Validate() error {
	if inf.Subj == nil || inf.Obj == nil {
		return &MalformedStatementError{Type: "influence", Reason: "missing subject or object"}
	}
	return nil
}

func (inf *Influence) Clone() Statement {
	c := *inf
	c.Base = inf.cloneBase()
	c.Subj = inf.Subj.Clone()
	c.Obj = inf.Obj.Clone()
	return &c
}

// Complex asserts that a set of agents has been observed in a physical
// complex. The relation is symmetric: member order is irrelevant.
type Complex struct {
	Base
	Members []*Agent `json:"members"`
}

// NewComplex builds a complex-formation statement.
func NewComplex(members []*Agent, ev ...*Evidence) *Complex {
	return &Complex{Base: NewBase(ev...), Members: members}
}

func (c *Complex) Type() string { return "complex" }

func (c *Complex) AgentList() []*Agent { return c.Members }

func (c *Complex) SetAgentList(agents []*Agent) error {
	c.Members = agents
	return nil
}

func (c *Complex) MatchesKey() string {
	keys := make([]string, len(c.Members))
	for i, m := range c.Members {
		keys[i] = agentKey(m)
	}
	sort.Strings(keys)
	return fmt.Sprintf("(complex, [%s])", strings.Join(keys, ";"))
}

func (c *Complex) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Complex)
	if !ok {
		return false, nil
	}
	// A larger complex is a different assertion, not a refinement.
	if len(c.Members) != len(o.Members) {
		return false, nil
	}
	// Every member of other must be refined by a distinct member of c;
	// membership is unordered so all assignments are tried greedily.
	used := make(map[int]bool)
	for _, om := range o.Members {
		found := false
		for i, sm := range c.Members {
			if used[i] {
				continue
			}
			ref, err := sm.RefinementOf(om, ont)
			if err != nil {
				return false, err
			}
			if ref {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func (c *Complex) Contradicts(Statement, ontology.Service) (bool, error) {
	return false, nil
}

func (c *Complex) Equal(other Statement) bool {
	o, ok := other.(*Complex)
	return ok && c.MatchesKey() == o.MatchesKey()
}

func (c *Complex) Validate() error {
	if len(c.Members) < 2 {
		return &MalformedStatementError{Type: "complex", Reason: "fewer than two members"}
	}
	for _, m := range c.Members {
		if m == nil {
			return &MalformedStatementError{Type: "complex", Reason: "nil member"}
		}
	}
	return nil
}

func (c *Complex) Clone() Statement {
	cl := *c
	cl.Base = c.cloneBase()
	cl.Members = make([]*Agent, len(c.Members))
	for i, m := range c.Members {
		cl.Members[i] = m.Clone()
	}
	return &cl
}

// Translocation asserts the movement of an agent between cellular
// locations.
type Translocation struct {
	Base
	Agent        *Agent `json:"agent"`
	FromLocation string `json:"from_location,omitempty"`
	ToLocation   string `json:"to_location,omitempty"`
}

// NewTranslocation builds a translocation statement.
func NewTranslocation(agent *Agent, from, to string, ev ...*Evidence) *Translocation {
	return &Translocation{Base: NewBase(ev...), Agent: agent, FromLocation: from, ToLocation: to}
}

func (t *Translocation) Type() string { return "translocation" }

func (t *Translocation) AgentList() []*Agent { return []*Agent{t.Agent} }

func (t *Translocation) SetAgentList(agents []*Agent) error {
	if len(agents) != 1 {
		return fmt.Errorf("translocation takes 1 agent, got %d", len(agents))
	}
	t.Agent = agents[0]
	return nil
}

func (t *Translocation) MatchesKey() string {
	return fmt.Sprintf("(translocation, %s, %s, %s)",
		agentKey(t.Agent), t.FromLocation, t.ToLocation)
}

func (t *Translocation) locationRefines(self, other string, ont ontology.Service) (bool, error) {
	if other == "" || self == other {
		return true, nil
	}
	if self == "" {
		return false, nil
	}
	return ont.PartOf(ontology.LocationNamespace, self, ontology.LocationNamespace, other)
}

func (t *Translocation) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*Translocation)
	if !ok {
		return false, nil
	}
	ref, err := agentRefinement(t.Agent, o.Agent, ont)
	if err != nil || !ref {
		return false, err
	}
	fromOK, err := t.locationRefines(t.FromLocation, o.FromLocation, ont)
	if err != nil || !fromOK {
		return false, err
	}
	return t.locationRefines(t.ToLocation, o.ToLocation, ont)
}

func (t *Translocation) Contradicts(Statement, ontology.Service) (bool, error) {
	return false, nil
}

func (t *Translocation) Equal(other Statement) bool {
	o, ok := other.(*Translocation)
	return ok && t.MatchesKey() == o.MatchesKey()
}

func (t *Translocation) Validate() error {
	if t.Agent == nil {
		return &MalformedStatementError{Type: "translocation", Reason: "missing agent"}
	}
	return nil
}

func (t *Translocation) Clone() Statement {
	c := *t
	c.Base = t.cloneBase()
	c.Agent = t.Agent.Clone()
	return &c
}

// ActiveForm asserts that an agent in a particular state has (or lacks) a
// given activity.
type ActiveForm struct {
	Base
	Agent        *Agent `json:"agent"`
	ActivityType string `json:"activity_type"`
	IsActive     bool   `json:"is_active"`
}

// NewActiveForm builds an active-form statement.
func NewActiveForm(agent *Agent, activityType string, isActive bool, ev ...*Evidence) *ActiveForm {
	return &ActiveForm{Base: NewBase(ev...), Agent: agent, ActivityType: activityType, IsActive: isActive}
}

func (a *ActiveForm) Type() string { return "activeform" }

func (a *ActiveForm) AgentList() []*Agent { return []*Agent{a.Agent} }

func (a *ActiveForm) SetAgentList(agents []*Agent) error {
	if len(agents) != 1 {
		return fmt.Errorf("activeform takes 1 agent, got %d", len(agents))
	}
	a.Agent = agents[0]
	return nil
}

func (a *ActiveForm) MatchesKey() string {
	return fmt.Sprintf("(activeform, %s, %s, %t)",
		agentKey(a.Agent), a.ActivityType, a.IsActive)
}

func (a *ActiveForm) RefinementOf(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*ActiveForm)
	if !ok || a.IsActive != o.IsActive {
		return false, nil
	}
	ref, err := agentRefinement(a.Agent, o.Agent, ont)
	if err != nil || !ref {
		return false, err
	}
	if a.ActivityType == o.ActivityType {
		return true, nil
	}
	return ont.IsA(ontology.ActivityNamespace, a.ActivityType,
		ontology.ActivityNamespace, o.ActivityType)
}

func (a *ActiveForm) Contradicts(other Statement, ont ontology.Service) (bool, error) {
	o, ok := other.(*ActiveForm)
	if !ok || a.IsActive == o.IsActive || a.ActivityType != o.ActivityType {
		return false, nil
	}
	if a.Agent == nil || o.Agent == nil {
		return false, nil
	}
	return a.Agent.EntityMatches(o.Agent), nil
}

func (a *ActiveForm) Equal(other Statement) bool {
	o, ok := other.(*ActiveForm)
	return ok && a.MatchesKey() == o.MatchesKey()
}

func (a *ActiveForm) Validate() error {
	if a.Agent == nil {
		return &MalformedStatementError{Type: "activeform", Reason: "missing agent"}
	}
	return nil
}

func (a *ActiveForm) Clone() Statement {
	c := *a
	c.Base = a.cloneBase()
	c.Agent = a.Agent.Clone()
	return &c
}
