package e2etest

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// findFieldForLabel returns the elements matching selector that the label with labelText points to.
func findFieldForLabel(form *goquery.Selection, labelText, selector string) (*goquery.Selection, error) {
	label := form.Find(fmt.Sprintf("label:contains(%q)", labelText))
	if label.Length() == 0 {
		return nil, fmt.Errorf("label not found: %s", labelText)
	}

	var field *goquery.Selection
	if id, exists := label.Attr("for"); exists {
		field = form.Find("#" + id).Filter(selector)
	} else {
		field = label.Find(selector)
	}
	if field.Length() == 0 {
		return nil, fmt.Errorf("%s not found for label: %s", selector, labelText)
	}
	return field, nil
}

// FindInputForLabel finds the input or textarea associated with a label in the given form.
func FindInputForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return findFieldForLabel(form, labelText, "input,textarea")
}

// FindSelectForLabel finds the select element associated with a label in the given form.
func FindSelectForLabel(form *goquery.Selection, labelText string) (*goquery.Selection, error) {
	return findFieldForLabel(form, labelText, "select")
}

// SelectedOption returns the value of the selected option or the first one when nothing is selected.
func SelectedOption(selectElement *goquery.Selection) string {
	selected := selectElement.Find("option[selected]")
	if selected.Length() == 0 {
		selected = selectElement.Find("option")
	}
	return selected.First().AttrOr("value", "")
}

// FindForm finds a form in the doc identified with action formActionUrlPath and returns the form selection.
func FindForm(doc *goquery.Document, formActionURLPath string) (*goquery.Selection, error) {
	form := doc.Find(fmt.Sprintf("form[action='%s']", formActionURLPath))
	if form.Length() == 0 {
		return nil, fmt.Errorf("form not found: %s", formActionURLPath)
	}
	return form, nil
}
