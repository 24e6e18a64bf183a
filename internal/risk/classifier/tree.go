package classifier

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cardiolens/cardiolens-backend/internal/risk/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed artifact.schema.json
var artifactSchema []byte

const schemaResource = "artifact.schema.json"

// artifact mirrors an XGBoost dump_model("json") export with the metadata
// needed to score it.
type artifact struct {
	Format       string     `json:"format"`
	Objective    string     `json:"objective"`
	BaseScore    float64    `json:"base_score"`
	FeatureNames []string   `json:"feature_names"`
	Trees        []treeNode `json:"trees"`
}

type treeNode struct {
	NodeID         int        `json:"nodeid"`
	Leaf           *float64   `json:"leaf"`
	Split          string     `json:"split"`
	SplitCondition float64    `json:"split_condition"`
	Yes            int        `json:"yes"`
	No             int        `json:"no"`
	Missing        *int       `json:"missing"`
	Children       []treeNode `json:"children"`
}

// node is a compiled tree node. Children are indices into the owning tree.
type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float32
	yes       int
	no        int
	missing   int
}

type tree []node

// TreeEnsemble scores rows with a gradient-boosted binary:logistic model.
type TreeEnsemble struct {
	baseMargin float64
	trees      []tree
}

// LoadTreeEnsemble reads, validates and compiles the artifact at path.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return ParseTreeEnsemble(data)
}

// ParseTreeEnsemble builds an ensemble from artifact bytes.
func ParseTreeEnsemble(data []byte) (*TreeEnsemble, error) {
	if err := validateArtifact(data); err != nil {
		return nil, err
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	if err := checkFeatureNames(a.FeatureNames); err != nil {
		return nil, err
	}

	e := &TreeEnsemble{
		baseMargin: math.Log(a.BaseScore / (1 - a.BaseScore)),
		trees:      make([]tree, 0, len(a.Trees)),
	}
	for i := range a.Trees {
		t, err := compileTree(&a.Trees[i], a.FeatureNames)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		e.trees = append(e.trees, t)
	}
	return e, nil
}

func validateArtifact(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(artifactSchema)); err != nil {
		return fmt.Errorf("add artifact schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return fmt.Errorf("compile artifact schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model artifact does not match schema: %w", err)
	}
	return nil
}

func checkFeatureNames(names []string) error {
	if len(names) != len(domain.Columns) {
		return fmt.Errorf("model expects %d features, encoder produces %d", len(names), len(domain.Columns))
	}
	for i, name := range names {
		if name != domain.Columns[i] {
			return fmt.Errorf("feature %d: model has %q, encoder has %q", i, name, domain.Columns[i])
		}
	}
	return nil
}

// compileTree flattens a nested dump into an index-addressed slice. yes, no
// and missing must name direct children, so traversal always descends.
func compileTree(root *treeNode, features []string) (tree, error) {
	var (
		t     tree
		index = map[int]int{}
	)

	var walk func(n *treeNode) (int, error)
	walk = func(n *treeNode) (int, error) {
		if _, dup := index[n.NodeID]; dup {
			return 0, fmt.Errorf("duplicate nodeid %d", n.NodeID)
		}
		pos := len(t)
		index[n.NodeID] = pos
		t = append(t, node{})

		if n.Leaf != nil {
			t[pos] = node{leaf: true, value: *n.Leaf}
			return pos, nil
		}

		feature, err := featureIndex(n.Split, features)
		if err != nil {
			return 0, fmt.Errorf("node %d: %w", n.NodeID, err)
		}

		children := make(map[int]int, len(n.Children))
		for i := range n.Children {
			c, err := walk(&n.Children[i])
			if err != nil {
				return 0, err
			}
			children[n.Children[i].NodeID] = c
		}

		missing := n.Yes
		if n.Missing != nil {
			missing = *n.Missing
		}
		yes, ok1 := children[n.Yes]
		no, ok2 := children[n.No]
		miss, ok3 := children[missing]
		if !ok1 || !ok2 || !ok3 {
			return 0, fmt.Errorf("node %d: branch does not reference a child", n.NodeID)
		}

		t[pos] = node{
			feature:   feature,
			threshold: float32(n.SplitCondition),
			yes:       yes,
			no:        no,
			missing:   miss,
		}
		return pos, nil
	}

	if _, err := walk(root); err != nil {
		return nil, err
	}
	return t, nil
}

// featureIndex resolves a split by feature name or by XGBoost's fN form.
func featureIndex(split string, features []string) (int, error) {
	for i, name := range features {
		if name == split {
			return i, nil
		}
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < len(features) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

func (t tree) leaf(row []float64) float64 {
	i := 0
	for {
		n := &t[i]
		if n.leaf {
			return n.value
		}
		x := row[n.feature]
		switch {
		case math.IsNaN(x):
			i = n.missing
		case float32(x) < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
}

// Probability returns P(class 1) for a single row.
func (e *TreeEnsemble) Probability(v domain.FeatureVector) float64 {
	row := v.Row()
	margin := e.baseMargin
	for _, t := range e.trees {
		margin += t.leaf(row)
	}
	return 1 / (1 + math.Exp(-margin))
}

func (e *TreeEnsemble) Name() string { return "tree" }

// Trees returns the number of boosted trees.
func (e *TreeEnsemble) Trees() int { return len(e.trees) }

func (e *TreeEnsemble) Predict(ctx context.Context, rows []domain.FeatureVector) ([]int, error) {
	probs, err := e.PredictProba(ctx, rows)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p[1] > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (e *TreeEnsemble) PredictProba(ctx context.Context, rows []domain.FeatureVector) ([][2]float64, error) {
	out := make([][2]float64, len(rows))
	for i, v := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := e.Probability(v)
		out[i] = [2]float64{1 - p, p}
	}
	return out, nil
}
