package adapter

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tinwren/hdlcov/internal/ast"
	m "github.com/tinwren/hdlcov/internal/model"
)

// NetlistStore reads and writes elaborated netlists in the .vnl archive
// format. Save and Load round-trip the full tree, including node sharing:
// declared types referenced by several variables and coverage declarations
// referenced by their increments come back as the same objects.
type NetlistStore interface {
	Save(path m.Path, root *ast.Netlist) error
	Load(path m.Path) (*ast.Netlist, error)

	// Probe reads only the archive header and returns the module names,
	// without decoding the node body.
	Probe(path m.Path) ([]string, error)
}

// ErrNotNetlist is returned when a file is not a netlist archive.
var ErrNotNetlist = errors.New("not a netlist archive")

const (
	archiveMagic   = "vnl1"
	archiveVersion = 1
)

// LocalNetlistStore persists netlists as msgpack archives on the local
// filesystem.
type LocalNetlistStore struct{}

// NewNetlistStore constructs a store backed by the local filesystem.
func NewNetlistStore() *LocalNetlistStore {
	return &LocalNetlistStore{}
}

// Save writes the netlist to path, replacing any existing archive.
func (s *LocalNetlistStore) Save(path m.Path, root *ast.Netlist) error {
	arc, err := encodeNetlist(root)
	if err != nil {
		return fmt.Errorf("failed to encode netlist: %w", err)
	}

	file, err := os.Create(string(path))
	if err != nil {
		return fmt.Errorf("failed to create netlist archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	if err := msgpack.NewEncoder(file).Encode(arc); err != nil {
		return fmt.Errorf("failed to write netlist archive: %w", err)
	}

	return nil
}

// Load reads the archive at path and rebuilds the netlist tree.
func (s *LocalNetlistStore) Load(path m.Path) (*ast.Netlist, error) {
	file, err := os.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open netlist archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var arc archive
	if err := msgpack.NewDecoder(file).Decode(&arc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotNetlist)
	}

	if arc.Magic != archiveMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrNotNetlist)
	}

	if arc.Version != archiveVersion {
		return nil, fmt.Errorf("%s: unsupported netlist archive version %d", path, arc.Version)
	}

	root, err := decodeNetlist(&arc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode netlist archive %s: %w", path, err)
	}

	return root, nil
}

// Probe returns the module names recorded in the archive header.
func (s *LocalNetlistStore) Probe(path m.Path) ([]string, error) {
	return probeArchive(path)
}

// probeArchive decodes the archive header only; msgpack skips the map keys
// that archiveHead does not name, so the node body is never materialized.
func probeArchive(path m.Path) ([]string, error) {
	file, err := os.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open netlist archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var head archiveHead
	if err := msgpack.NewDecoder(file).Decode(&head); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotNetlist)
	}

	if head.Magic != archiveMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrNotNetlist)
	}

	return head.Modules, nil
}

// archive is the on-disk envelope. Declared types are pooled and referenced
// by index so that sharing survives the round trip.
type archive struct {
	Magic   string     `msgpack:"magic"`
	Version int        `msgpack:"ver"`
	Modules []string   `msgpack:"mods"`
	DTypes  []dtypeRec `msgpack:"types"`
	Loc     *locRec    `msgpack:"fl,omitempty"`
	Body    []nodeRec  `msgpack:"body"`
}

// archiveHead is the prefix of archive that Probe decodes.
type archiveHead struct {
	Magic   string   `msgpack:"magic"`
	Version int      `msgpack:"ver"`
	Modules []string `msgpack:"mods"`
}

type locRec struct {
	File     string `msgpack:"f"`
	First    int    `msgpack:"b"`
	Last     int    `msgpack:"e"`
	Off      bool   `msgpack:"off,omitempty"`
	NoUnused bool   `msgpack:"nu,omitempty"`
}

// nodeRec is the flat wire form of a single tree node. One record type
// covers every statement and expression; Kind tells the decoder which
// fields are meaningful.
type nodeRec struct {
	Kind    string    `msgpack:"k"`
	Loc     *locRec   `msgpack:"fl,omitempty"`
	Name    string    `msgpack:"n,omitempty"`
	Flavor  int       `msgpack:"fv,omitempty"`
	Top     bool      `msgpack:"top,omitempty"`
	Class   bool      `msgpack:"cls,omitempty"`
	IsFunc  bool      `msgpack:"fn,omitempty"`
	Foreign bool      `msgpack:"ext,omitempty"`
	Trace   bool      `msgpack:"tr,omitempty"`
	DType   int32     `msgpack:"dt,omitempty"`
	Decl    int32     `msgpack:"dcl,omitempty"`
	Page    string    `msgpack:"pg,omitempty"`
	Comment string    `msgpack:"cm,omitempty"`
	Lines   string    `msgpack:"ln,omitempty"`
	Offset  int       `msgpack:"off,omitempty"`
	Hier    string    `msgpack:"hr,omitempty"`
	Lsb     int       `msgpack:"lsb,omitempty"`
	Width   int       `msgpack:"w,omitempty"`
	Index   int       `msgpack:"ix,omitempty"`
	Value   uint64    `msgpack:"v,omitempty"`
	Cond    *nodeRec  `msgpack:"c,omitempty"`
	From    *nodeRec  `msgpack:"fr,omitempty"`
	Inc     *nodeRec  `msgpack:"inc,omitempty"`
	Left    *nodeRec  `msgpack:"l,omitempty"`
	Right   *nodeRec  `msgpack:"r,omitempty"`
	Stmts   []nodeRec `msgpack:"s,omitempty"`
	Else    []nodeRec `msgpack:"e,omitempty"`
	Conds   []nodeRec `msgpack:"cs,omitempty"`
	Incs    []nodeRec `msgpack:"is,omitempty"`
}

// Node kind discriminators.
const (
	nodeModule   = "mod"
	nodeProc     = "proc"
	nodeWhile    = "while"
	nodeTaskFunc = "task"
	nodeIf       = "if"
	nodeCase     = "case"
	nodeCaseItem = "item"
	nodeBegin    = "begin"
	nodeCover    = "cover"
	nodeStop     = "stop"
	nodePragma   = "pragma"
	nodeVar      = "var"
	nodeAssign   = "assign"
	nodeDecl     = "decl"
	nodeInc      = "inc"
	nodeToggle   = "toggle"
	nodeVarRef   = "ref"
	nodeSel      = "sel"
	nodeArraySel = "asel"
	nodeStruSel  = "ssel"
	nodeAdd      = "add"
	nodeConst    = "const"
)

type dtypeRec struct {
	Kind    string      `msgpack:"k"`
	Loc     *locRec     `msgpack:"fl,omitempty"`
	Ranged  bool        `msgpack:"rg,omitempty"`
	Hi      int         `msgpack:"hi,omitempty"`
	Lo      int         `msgpack:"lo,omitempty"`
	Elem    int32       `msgpack:"el,omitempty"`
	Packed  bool        `msgpack:"pk,omitempty"`
	Members []memberRec `msgpack:"ms,omitempty"`
	Name    string      `msgpack:"n,omitempty"`
	To      int32       `msgpack:"to,omitempty"`
}

type memberRec struct {
	Name  string  `msgpack:"n"`
	Loc   *locRec `msgpack:"fl,omitempty"`
	DType int32   `msgpack:"dt"`
	LSB   int     `msgpack:"lsb,omitempty"`
}

// Declared type kind discriminators.
const (
	dtypeBasic  = "basic"
	dtypeUArray = "uarray"
	dtypePArray = "parray"
	dtypeStruct = "struct"
	dtypeUnion  = "union"
	dtypeRef    = "ref"
)

func encodeLoc(fl *ast.FileLine) *locRec {
	if fl == nil {
		return nil
	}

	return &locRec{
		File:     fl.Filename,
		First:    fl.FirstLine,
		Last:     fl.LastLine,
		Off:      !fl.CoverageOn,
		NoUnused: fl.WarnIsOff(ast.WarnUnusedSignal),
	}
}

func decodeLoc(rec *locRec) *ast.FileLine {
	if rec == nil {
		return nil
	}

	fl := ast.NewFileLine(rec.File, rec.First, rec.Last)
	if rec.Off {
		fl.CoverageOn = false
	}

	if rec.NoUnused {
		fl.WarnOff(ast.WarnUnusedSignal)
	}

	return fl
}

type netlistEncoder struct {
	dtypeIdx map[ast.DType]int32
	dtypes   []dtypeRec
	declIdx  map[*ast.CoverDecl]int32
}

func encodeNetlist(root *ast.Netlist) (*archive, error) {
	e := &netlistEncoder{
		dtypeIdx: make(map[ast.DType]int32),
		declIdx:  make(map[*ast.CoverDecl]int32),
	}

	arc := &archive{
		Magic:   archiveMagic,
		Version: archiveVersion,
		Loc:     encodeLoc(root.Fl),
	}

	for _, mod := range root.Modules {
		rec, err := e.encodeNode(mod)
		if err != nil {
			return nil, err
		}

		arc.Modules = append(arc.Modules, mod.Name)
		arc.Body = append(arc.Body, rec)
	}

	arc.DTypes = e.dtypes

	return arc, nil
}

// declID hands out archive-wide coverage declaration ids at first sight, so
// increments that precede their declaration in document order still agree
// with it on the id.
func (e *netlistEncoder) declID(d *ast.CoverDecl) int32 {
	if id, ok := e.declIdx[d]; ok {
		return id
	}

	id := int32(len(e.declIdx) + 1)
	e.declIdx[d] = id

	return id
}

// internDType pools a declared type and returns its 1-based archive index.
// The slot is reserved before children are interned, so self-referential
// typedefs terminate.
func (e *netlistEncoder) internDType(dt ast.DType) int32 {
	if dt == nil {
		return 0
	}

	if idx, ok := e.dtypeIdx[dt]; ok {
		return idx
	}

	idx := int32(len(e.dtypes) + 1)
	e.dtypeIdx[dt] = idx
	e.dtypes = append(e.dtypes, dtypeRec{})

	var rec dtypeRec

	switch d := dt.(type) {
	case *ast.BasicDType:
		rec = dtypeRec{Kind: dtypeBasic, Loc: encodeLoc(d.Fl), Ranged: d.Ranged, Hi: d.Hi, Lo: d.Lo}
	case *ast.UnpackArrayDType:
		rec = dtypeRec{Kind: dtypeUArray, Loc: encodeLoc(d.Fl), Elem: e.internDType(d.Elem), Lo: d.Lo, Hi: d.Hi}
	case *ast.PackArrayDType:
		rec = dtypeRec{Kind: dtypePArray, Loc: encodeLoc(d.Fl), Elem: e.internDType(d.Elem), Lo: d.Lo, Hi: d.Hi}
	case *ast.StructDType:
		rec = dtypeRec{Kind: dtypeStruct, Loc: encodeLoc(d.Fl), Packed: d.Packed, Members: e.internMembers(d.Members)}
	case *ast.UnionDType:
		rec = dtypeRec{Kind: dtypeUnion, Loc: encodeLoc(d.Fl), Packed: d.Packed, Members: e.internMembers(d.Members)}
	case *ast.RefDType:
		rec = dtypeRec{Kind: dtypeRef, Loc: encodeLoc(d.Fl), Name: d.Name, To: e.internDType(d.To)}
	default:
		panic(fmt.Sprintf("netlist archive: unexpected data type %T", dt))
	}

	e.dtypes[idx-1] = rec

	return idx
}

func (e *netlistEncoder) internMembers(members []*ast.Member) []memberRec {
	recs := make([]memberRec, 0, len(members))
	for _, member := range members {
		recs = append(recs, memberRec{
			Name:  member.Name,
			Loc:   encodeLoc(member.Fl),
			DType: e.internDType(member.DType),
			LSB:   member.LSB,
		})
	}

	return recs
}

func (e *netlistEncoder) encodeStmts(stmts []ast.Stmt) ([]nodeRec, error) {
	if len(stmts) == 0 {
		return nil, nil
	}

	recs := make([]nodeRec, 0, len(stmts))

	for _, s := range stmts {
		rec, err := e.encodeNode(s)
		if err != nil {
			return nil, err
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

func (e *netlistEncoder) encodeChild(n ast.Node) (*nodeRec, error) {
	if n == nil {
		return nil, nil
	}

	rec, err := e.encodeNode(n)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

//nolint:funlen,gocyclo // One case per node kind; splitting hides the format.
func (e *netlistEncoder) encodeNode(n ast.Node) (nodeRec, error) {
	switch n := n.(type) {
	case *ast.Module:
		rec := nodeRec{Kind: nodeModule, Loc: encodeLoc(n.Fl), Name: n.Name, Top: n.Top, Class: n.Class}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Stmts = stmts

		return rec, nil

	case *ast.Procedure:
		rec := nodeRec{Kind: nodeProc, Loc: encodeLoc(n.Fl), Flavor: int(n.Kind)}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Stmts = stmts

		return rec, nil

	case *ast.While:
		rec := nodeRec{Kind: nodeWhile, Loc: encodeLoc(n.Fl)}

		cond, err := e.encodeChild(n.Cond)
		if err != nil {
			return nodeRec{}, err
		}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Cond = cond
		rec.Stmts = stmts

		return rec, nil

	case *ast.TaskFunc:
		rec := nodeRec{Kind: nodeTaskFunc, Loc: encodeLoc(n.Fl), Name: n.Name, IsFunc: n.IsFunc, Foreign: n.Foreign}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Stmts = stmts

		return rec, nil

	case *ast.If:
		rec := nodeRec{Kind: nodeIf, Loc: encodeLoc(n.Fl)}

		cond, err := e.encodeChild(n.Cond)
		if err != nil {
			return nodeRec{}, err
		}

		then, err := e.encodeStmts(n.Then)
		if err != nil {
			return nodeRec{}, err
		}

		otherwise, err := e.encodeStmts(n.Else)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Cond = cond
		rec.Stmts = then
		rec.Else = otherwise

		return rec, nil

	case *ast.Case:
		rec := nodeRec{Kind: nodeCase, Loc: encodeLoc(n.Fl)}

		cond, err := e.encodeChild(n.Expr)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Cond = cond

		for _, item := range n.Items {
			itemRec, err := e.encodeNode(item)
			if err != nil {
				return nodeRec{}, err
			}

			rec.Stmts = append(rec.Stmts, itemRec)
		}

		return rec, nil

	case *ast.CaseItem:
		rec := nodeRec{Kind: nodeCaseItem, Loc: encodeLoc(n.Fl)}

		for _, cond := range n.Conds {
			condRec, err := e.encodeNode(cond)
			if err != nil {
				return nodeRec{}, err
			}

			rec.Conds = append(rec.Conds, condRec)
		}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Stmts = stmts

		return rec, nil

	case *ast.Begin:
		rec := nodeRec{Kind: nodeBegin, Loc: encodeLoc(n.Fl), Name: n.Name}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Stmts = stmts

		return rec, nil

	case *ast.Cover:
		rec := nodeRec{Kind: nodeCover, Loc: encodeLoc(n.Fl), Name: n.Name}

		cond, err := e.encodeChild(n.Cond)
		if err != nil {
			return nodeRec{}, err
		}

		stmts, err := e.encodeStmts(n.Stmts)
		if err != nil {
			return nodeRec{}, err
		}

		incs, err := e.encodeStmts(n.Incs)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Cond = cond
		rec.Stmts = stmts
		rec.Incs = incs

		return rec, nil

	case *ast.Stop:
		return nodeRec{Kind: nodeStop, Loc: encodeLoc(n.Fl)}, nil

	case *ast.Pragma:
		return nodeRec{Kind: nodePragma, Loc: encodeLoc(n.Fl), Flavor: int(n.Kind)}, nil

	case *ast.Var:
		return nodeRec{
			Kind:   nodeVar,
			Loc:    encodeLoc(n.Fl),
			Name:   n.Name,
			Flavor: int(n.Kind),
			DType:  e.internDType(n.DType),
			Trace:  n.Trace,
		}, nil

	case *ast.Assign:
		rec := nodeRec{Kind: nodeAssign, Loc: encodeLoc(n.Fl)}

		lhs, err := e.encodeChild(n.LHS)
		if err != nil {
			return nodeRec{}, err
		}

		rhs, err := e.encodeChild(n.RHS)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Left = lhs
		rec.Right = rhs

		return rec, nil

	case *ast.CoverDecl:
		return nodeRec{
			Kind:    nodeDecl,
			Loc:     encodeLoc(n.Fl),
			Decl:    e.declID(n),
			Page:    n.Page,
			Comment: n.Comment,
			Lines:   n.LinesCov,
			Offset:  n.Offset,
			Hier:    n.Hier,
		}, nil

	case *ast.CoverInc:
		if n.Decl == nil {
			return nodeRec{}, fmt.Errorf("coverage increment at %s:%d has no declaration", n.Fl.Filename, n.Fl.FirstLine)
		}

		return nodeRec{Kind: nodeInc, Loc: encodeLoc(n.Fl), Decl: e.declID(n.Decl)}, nil

	case *ast.CoverToggle:
		rec := nodeRec{Kind: nodeToggle, Loc: encodeLoc(n.Fl)}

		inc, err := e.encodeChild(n.Inc)
		if err != nil {
			return nodeRec{}, err
		}

		value, err := e.encodeChild(n.Value)
		if err != nil {
			return nodeRec{}, err
		}

		change, err := e.encodeChild(n.Change)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Inc = inc
		rec.Left = value
		rec.Right = change

		return rec, nil

	case *ast.VarRef:
		if n.Target == nil {
			return nodeRec{}, fmt.Errorf("variable reference at %s:%d has no target", n.Fl.Filename, n.Fl.FirstLine)
		}

		return nodeRec{Kind: nodeVarRef, Loc: encodeLoc(n.Fl), Name: n.Target.Name, Flavor: int(n.Access)}, nil

	case *ast.Sel:
		rec := nodeRec{Kind: nodeSel, Loc: encodeLoc(n.Fl), Lsb: n.Lsb, Width: n.Width}

		from, err := e.encodeChild(n.From)
		if err != nil {
			return nodeRec{}, err
		}

		rec.From = from

		return rec, nil

	case *ast.ArraySel:
		rec := nodeRec{Kind: nodeArraySel, Loc: encodeLoc(n.Fl), Index: n.Index}

		from, err := e.encodeChild(n.From)
		if err != nil {
			return nodeRec{}, err
		}

		rec.From = from

		return rec, nil

	case *ast.StructSel:
		rec := nodeRec{Kind: nodeStruSel, Loc: encodeLoc(n.Fl), Name: n.Member, DType: e.internDType(n.DType)}

		from, err := e.encodeChild(n.From)
		if err != nil {
			return nodeRec{}, err
		}

		rec.From = from

		return rec, nil

	case *ast.Add:
		rec := nodeRec{Kind: nodeAdd, Loc: encodeLoc(n.Fl)}

		left, err := e.encodeChild(n.L)
		if err != nil {
			return nodeRec{}, err
		}

		right, err := e.encodeChild(n.R)
		if err != nil {
			return nodeRec{}, err
		}

		rec.Left = left
		rec.Right = right

		return rec, nil

	case *ast.Const:
		return nodeRec{Kind: nodeConst, Loc: encodeLoc(n.Fl), Width: n.Width, Value: n.Value}, nil

	default:
		return nodeRec{}, fmt.Errorf("cannot archive node type %T", n)
	}
}

type pendingInc struct {
	inc *ast.CoverInc
	id  int32
}

type pendingRef struct {
	ref  *ast.VarRef
	name string
}

type netlistDecoder struct {
	dtypes      []ast.DType
	decls       map[int32]*ast.CoverDecl
	pendingIncs []pendingInc

	// Variable scope of the module being decoded. References bind by name;
	// names are unique within an elaborated module.
	vars        map[string]*ast.Var
	pendingRefs []pendingRef
}

func decodeNetlist(arc *archive) (*ast.Netlist, error) {
	dtypes, err := decodeDTypes(arc.DTypes)
	if err != nil {
		return nil, err
	}

	d := &netlistDecoder{
		dtypes: dtypes,
		decls:  make(map[int32]*ast.CoverDecl),
	}

	root := &ast.Netlist{Fl: decodeLoc(arc.Loc)}

	for i := range arc.Body {
		node, err := d.decodeNode(&arc.Body[i])
		if err != nil {
			return nil, err
		}

		mod, ok := node.(*ast.Module)
		if !ok {
			return nil, fmt.Errorf("archive body entry %d is not a module", i)
		}

		root.Modules = append(root.Modules, mod)
	}

	for _, p := range d.pendingIncs {
		decl, ok := d.decls[p.id]
		if !ok {
			return nil, fmt.Errorf("coverage increment references missing declaration %d", p.id)
		}

		p.inc.Decl = decl
	}

	return root, nil
}

// decodeDTypes rebuilds the declared type pool in two phases: allocate
// empty shells first so that indices can resolve regardless of order, then
// fill the fields.
func decodeDTypes(recs []dtypeRec) ([]ast.DType, error) {
	pool := make([]ast.DType, len(recs))

	for i := range recs {
		switch recs[i].Kind {
		case dtypeBasic:
			pool[i] = &ast.BasicDType{}
		case dtypeUArray:
			pool[i] = &ast.UnpackArrayDType{}
		case dtypePArray:
			pool[i] = &ast.PackArrayDType{}
		case dtypeStruct:
			pool[i] = &ast.StructDType{}
		case dtypeUnion:
			pool[i] = &ast.UnionDType{}
		case dtypeRef:
			pool[i] = &ast.RefDType{}
		default:
			return nil, fmt.Errorf("unknown data type kind %q", recs[i].Kind)
		}
	}

	at := func(idx int32) (ast.DType, error) {
		if idx == 0 {
			return nil, nil
		}

		if idx < 1 || int(idx) > len(pool) {
			return nil, fmt.Errorf("data type index %d out of range", idx)
		}

		return pool[idx-1], nil
	}

	for i := range recs {
		rec := &recs[i]

		switch dt := pool[i].(type) {
		case *ast.BasicDType:
			dt.Fl = decodeLoc(rec.Loc)
			dt.Ranged = rec.Ranged
			dt.Hi = rec.Hi
			dt.Lo = rec.Lo

		case *ast.UnpackArrayDType:
			elem, err := at(rec.Elem)
			if err != nil {
				return nil, err
			}

			dt.Fl = decodeLoc(rec.Loc)
			dt.Elem = elem
			dt.Lo = rec.Lo
			dt.Hi = rec.Hi

		case *ast.PackArrayDType:
			elem, err := at(rec.Elem)
			if err != nil {
				return nil, err
			}

			dt.Fl = decodeLoc(rec.Loc)
			dt.Elem = elem
			dt.Lo = rec.Lo
			dt.Hi = rec.Hi

		case *ast.StructDType:
			members, err := decodeMembers(rec.Members, at)
			if err != nil {
				return nil, err
			}

			dt.Fl = decodeLoc(rec.Loc)
			dt.Packed = rec.Packed
			dt.Members = members

		case *ast.UnionDType:
			members, err := decodeMembers(rec.Members, at)
			if err != nil {
				return nil, err
			}

			dt.Fl = decodeLoc(rec.Loc)
			dt.Packed = rec.Packed
			dt.Members = members

		case *ast.RefDType:
			to, err := at(rec.To)
			if err != nil {
				return nil, err
			}

			dt.Fl = decodeLoc(rec.Loc)
			dt.Name = rec.Name
			dt.To = to
		}
	}

	return pool, nil
}

func decodeMembers(recs []memberRec, at func(int32) (ast.DType, error)) ([]*ast.Member, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	members := make([]*ast.Member, 0, len(recs))

	for _, rec := range recs {
		dt, err := at(rec.DType)
		if err != nil {
			return nil, err
		}

		members = append(members, &ast.Member{
			Fl:    decodeLoc(rec.Loc),
			Name:  rec.Name,
			DType: dt,
			LSB:   rec.LSB,
		})
	}

	return members, nil
}

func (d *netlistDecoder) dtypeAt(idx int32) (ast.DType, error) {
	if idx == 0 {
		return nil, nil
	}

	if idx < 1 || int(idx) > len(d.dtypes) {
		return nil, fmt.Errorf("data type index %d out of range", idx)
	}

	return d.dtypes[idx-1], nil
}

func (d *netlistDecoder) decodeStmts(recs []nodeRec) ([]ast.Stmt, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	stmts := make([]ast.Stmt, 0, len(recs))

	for i := range recs {
		node, err := d.decodeNode(&recs[i])
		if err != nil {
			return nil, err
		}

		stmt, ok := node.(ast.Stmt)
		if !ok {
			return nil, fmt.Errorf("%q node cannot appear in a statement list", recs[i].Kind)
		}

		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

func (d *netlistDecoder) decodeExpr(rec *nodeRec) (ast.Expr, error) {
	if rec == nil {
		return nil, nil
	}

	node, err := d.decodeNode(rec)
	if err != nil {
		return nil, err
	}

	expr, ok := node.(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("%q node cannot appear as an expression", rec.Kind)
	}

	return expr, nil
}

//nolint:funlen,gocyclo // One case per node kind; splitting hides the format.
func (d *netlistDecoder) decodeNode(rec *nodeRec) (ast.Node, error) {
	switch rec.Kind {
	case nodeModule:
		mod := &ast.Module{Fl: decodeLoc(rec.Loc), Name: rec.Name, Top: rec.Top, Class: rec.Class}

		d.vars = make(map[string]*ast.Var)
		d.pendingRefs = nil

		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		mod.Stmts = stmts

		for _, p := range d.pendingRefs {
			target, ok := d.vars[p.name]
			if !ok {
				return nil, fmt.Errorf("unresolved variable reference %q in module %s", p.name, mod.Name)
			}

			p.ref.Target = target
		}

		return mod, nil

	case nodeProc:
		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		return &ast.Procedure{Fl: decodeLoc(rec.Loc), Kind: ast.ProcKind(rec.Flavor), Stmts: stmts}, nil

	case nodeWhile:
		cond, err := d.decodeExpr(rec.Cond)
		if err != nil {
			return nil, err
		}

		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		return &ast.While{Fl: decodeLoc(rec.Loc), Cond: cond, Stmts: stmts}, nil

	case nodeTaskFunc:
		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		return &ast.TaskFunc{
			Fl:      decodeLoc(rec.Loc),
			Name:    rec.Name,
			IsFunc:  rec.IsFunc,
			Foreign: rec.Foreign,
			Stmts:   stmts,
		}, nil

	case nodeIf:
		cond, err := d.decodeExpr(rec.Cond)
		if err != nil {
			return nil, err
		}

		then, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		otherwise, err := d.decodeStmts(rec.Else)
		if err != nil {
			return nil, err
		}

		return &ast.If{Fl: decodeLoc(rec.Loc), Cond: cond, Then: then, Else: otherwise}, nil

	case nodeCase:
		cond, err := d.decodeExpr(rec.Cond)
		if err != nil {
			return nil, err
		}

		stmt := &ast.Case{Fl: decodeLoc(rec.Loc), Expr: cond}

		for i := range rec.Stmts {
			node, err := d.decodeNode(&rec.Stmts[i])
			if err != nil {
				return nil, err
			}

			item, ok := node.(*ast.CaseItem)
			if !ok {
				return nil, fmt.Errorf("case statement contains %q node instead of a case item", rec.Stmts[i].Kind)
			}

			stmt.Items = append(stmt.Items, item)
		}

		return stmt, nil

	case nodeCaseItem:
		item := &ast.CaseItem{Fl: decodeLoc(rec.Loc)}

		for i := range rec.Conds {
			cond, err := d.decodeExpr(&rec.Conds[i])
			if err != nil {
				return nil, err
			}

			item.Conds = append(item.Conds, cond)
		}

		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		item.Stmts = stmts

		return item, nil

	case nodeBegin:
		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		return &ast.Begin{Fl: decodeLoc(rec.Loc), Name: rec.Name, Stmts: stmts}, nil

	case nodeCover:
		cond, err := d.decodeExpr(rec.Cond)
		if err != nil {
			return nil, err
		}

		stmts, err := d.decodeStmts(rec.Stmts)
		if err != nil {
			return nil, err
		}

		incs, err := d.decodeStmts(rec.Incs)
		if err != nil {
			return nil, err
		}

		return &ast.Cover{Fl: decodeLoc(rec.Loc), Name: rec.Name, Cond: cond, Stmts: stmts, Incs: incs}, nil

	case nodeStop:
		return &ast.Stop{Fl: decodeLoc(rec.Loc)}, nil

	case nodePragma:
		return &ast.Pragma{Fl: decodeLoc(rec.Loc), Kind: ast.PragmaKind(rec.Flavor)}, nil

	case nodeVar:
		dt, err := d.dtypeAt(rec.DType)
		if err != nil {
			return nil, err
		}

		v := &ast.Var{
			Fl:    decodeLoc(rec.Loc),
			Name:  rec.Name,
			Kind:  ast.VarKind(rec.Flavor),
			DType: dt,
			Trace: rec.Trace,
		}

		if d.vars != nil {
			d.vars[v.Name] = v
		}

		return v, nil

	case nodeAssign:
		lhs, err := d.decodeExpr(rec.Left)
		if err != nil {
			return nil, err
		}

		rhs, err := d.decodeExpr(rec.Right)
		if err != nil {
			return nil, err
		}

		return &ast.Assign{Fl: decodeLoc(rec.Loc), LHS: lhs, RHS: rhs}, nil

	case nodeDecl:
		decl := &ast.CoverDecl{
			Fl:       decodeLoc(rec.Loc),
			Page:     rec.Page,
			Comment:  rec.Comment,
			LinesCov: rec.Lines,
			Offset:   rec.Offset,
			Hier:     rec.Hier,
		}

		d.decls[rec.Decl] = decl

		return decl, nil

	case nodeInc:
		inc := &ast.CoverInc{Fl: decodeLoc(rec.Loc)}
		d.pendingIncs = append(d.pendingIncs, pendingInc{inc: inc, id: rec.Decl})

		return inc, nil

	case nodeToggle:
		if rec.Inc == nil {
			return nil, fmt.Errorf("toggle record missing its increment")
		}

		node, err := d.decodeNode(rec.Inc)
		if err != nil {
			return nil, err
		}

		inc, ok := node.(*ast.CoverInc)
		if !ok {
			return nil, fmt.Errorf("toggle record holds %q node instead of an increment", rec.Inc.Kind)
		}

		value, err := d.decodeExpr(rec.Left)
		if err != nil {
			return nil, err
		}

		change, err := d.decodeExpr(rec.Right)
		if err != nil {
			return nil, err
		}

		return &ast.CoverToggle{Fl: decodeLoc(rec.Loc), Inc: inc, Value: value, Change: change}, nil

	case nodeVarRef:
		ref := &ast.VarRef{Fl: decodeLoc(rec.Loc), Access: ast.Access(rec.Flavor)}
		d.pendingRefs = append(d.pendingRefs, pendingRef{ref: ref, name: rec.Name})

		return ref, nil

	case nodeSel:
		from, err := d.decodeExpr(rec.From)
		if err != nil {
			return nil, err
		}

		return &ast.Sel{Fl: decodeLoc(rec.Loc), From: from, Lsb: rec.Lsb, Width: rec.Width}, nil

	case nodeArraySel:
		from, err := d.decodeExpr(rec.From)
		if err != nil {
			return nil, err
		}

		return &ast.ArraySel{Fl: decodeLoc(rec.Loc), From: from, Index: rec.Index}, nil

	case nodeStruSel:
		from, err := d.decodeExpr(rec.From)
		if err != nil {
			return nil, err
		}

		dt, err := d.dtypeAt(rec.DType)
		if err != nil {
			return nil, err
		}

		return &ast.StructSel{Fl: decodeLoc(rec.Loc), From: from, Member: rec.Name, DType: dt}, nil

	case nodeAdd:
		left, err := d.decodeExpr(rec.Left)
		if err != nil {
			return nil, err
		}

		right, err := d.decodeExpr(rec.Right)
		if err != nil {
			return nil, err
		}

		return &ast.Add{Fl: decodeLoc(rec.Loc), L: left, R: right}, nil

	case nodeConst:
		return &ast.Const{Fl: decodeLoc(rec.Loc), Width: rec.Width, Value: rec.Value}, nil

	default:
		return nil, fmt.Errorf("unknown node kind %q in archive", rec.Kind)
	}
}
