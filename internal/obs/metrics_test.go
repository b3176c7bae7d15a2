package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                 "/",
		"/metrics":                         "/metrics",
		"/api/usuarios":                    "/api/usuarios",
		"/api/usuarios/42":                 "/api/usuarios/:id",
		"/api/usuarios/42/upload-image":    "/api/usuarios/:id/upload-image",
		"/api/prestadores/7":               "/api/prestadores/:id",
		"/api/anuncios/9?expand=prestador": "/api/anuncios/:id",
		"/api/anuncios/9/extra/deep":       "/api/anuncios/9/extra/deep",
		"/api/auth/login":                  "/api/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
