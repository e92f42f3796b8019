// Package markup fills in responsive image attributes on HTML fragments.
//
// Elements carrying a data-srcset-id attribute are resolved against the size
// catalog. An img element receives a srcset attribute with every candidate
// and a src pointing at the best one; any other element gets the best
// candidate as its background image. data-srcset-type picks the variant type.
package markup

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	apperrors "github.com/anime-shed/image-srcset-go/internal/errors"
	"github.com/anime-shed/image-srcset-go/internal/logger"
	"github.com/anime-shed/image-srcset-go/pkg/models"
	"github.com/anime-shed/image-srcset-go/pkg/srcset"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	AttrID   = "data-srcset-id"
	AttrType = "data-srcset-type"
)

// Resolver picks the best candidate of an image for a viewport
type Resolver interface {
	Resolve(ctx context.Context, id, requested string, vp srcset.Viewport) (*models.BestImageResponse, error)
}

// Rewriter rewrites HTML fragments
type Rewriter struct {
	resolver Resolver
}

// NewRewriter creates a rewriter resolving images through resolver
func NewRewriter(resolver Resolver) *Rewriter {
	return &Rewriter{resolver: resolver}
}

// Rewrite returns fragment with every data-srcset-id element filled in for
// vp, along with the number of elements rewritten. Elements whose variant
// has no candidates are left untouched.
func (r *Rewriter) Rewrite(ctx context.Context, fragment string, vp srcset.Viewport) (string, int, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", 0, apperrors.NewValidationError("invalid HTML fragment", err)
	}

	rewritten := 0
	var walk func(*html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode {
			ok, err := r.rewriteElement(ctx, n, vp)
			if err != nil {
				return err
			}
			if ok {
				rewritten++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := walk(n); err != nil {
			return "", 0, err
		}
		if err := html.Render(&buf, n); err != nil {
			return "", 0, apperrors.NewInternalError("failed to render HTML fragment", err)
		}
	}

	return buf.String(), rewritten, nil
}

func (r *Rewriter) rewriteElement(ctx context.Context, n *html.Node, vp srcset.Viewport) (bool, error) {
	id := attr(n, AttrID)
	if strings.TrimSpace(id) == "" {
		return false, nil
	}

	resp, err := r.resolver.Resolve(ctx, id, attr(n, AttrType), vp)
	if err != nil {
		if resp == nil {
			return false, err
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"id":           id,
			"variant_type": resp.VariantType,
		}).Debug("Skipping element without candidates")
		return false, nil
	}
	if !resp.Found || resp.Selected == nil {
		return false, nil
	}

	if n.DataAtom == atom.Img {
		setAttr(n, "srcset", resp.Srcset)
		setAttr(n, "src", resp.Selected.URL)
		return true, nil
	}

	setAttr(n, "style", withBackground(attr(n, "style"), resp.Selected.URL))
	return true, nil
}

// withBackground replaces any background-image declaration in style.
func withBackground(style, url string) string {
	var decls []string
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.EqualFold(strings.TrimSpace(name), "background-image") {
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, fmt.Sprintf("background-image: url(%q)", url))
	return strings.Join(decls, "; ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
