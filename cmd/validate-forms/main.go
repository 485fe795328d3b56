package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/lead-relay/forms"
)

/* validate-forms checks a forms.yaml before it is deployed
 * Usage: go run ./cmd/validate-forms [forms.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	formsFile := "forms.yaml"
	if len(os.Args) > 1 {
		formsFile = os.Args[1]
	}

	fmt.Printf("Validating forms file: %s\n", formsFile)
	fmt.Println(strings.Repeat("-", 50))

	// Built-ins first so the listing shows what the file overrides
	catalogue := forms.NewCatalogue()
	if err := catalogue.Defaults(forms.Settings{}); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\nError: %v\n", err)
		os.Exit(1)
	}
	if err := catalogue.Load(formsFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\nError: %v\n", err)
		os.Exit(1)
	}

	all := catalogue.List()
	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("%d form(s) after merging with the built-ins:\n", len(all))

	for i, f := range all {
		fmt.Printf("\n%d. Form: %s\n", i+1, f.FormType)
		fmt.Printf("   Policy:        %s\n", f.Policy)
		fmt.Printf("   Attempts:      %d\n", f.Attempts())
		if f.WebhookURL != "" {
			fmt.Printf("   Webhook URL:   %s\n", f.WebhookURL)
		} else {
			fmt.Printf("   Webhook URL:   (default)\n")
		}
		if f.HasDocument() {
			fmt.Printf("   Document:      %s <%s>\n", f.Document, f.DocumentURL)
		}
		if f.AlwaysNotify {
			fmt.Printf("   Always notify: yes\n")
		}
		if len(f.RequiredFields) > 0 {
			fmt.Printf("   Required:      %s\n", strings.Join(f.RequiredFields, ", "))
		}
	}
}
