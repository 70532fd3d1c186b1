// Package reconcile joins the metadata catalog to the media inventory and
// decides, per logical key, what happens to each physical file.
//
// Building decisions is a pure function of its two inputs. The same catalog
// and inventory always produce the same decision list, which is what makes
// repeated runs against a partially populated output tree safe.
package reconcile
