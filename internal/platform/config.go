package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Credentials holds basic-auth access to an instance. Password may be
// inlined or, preferably, named by PasswordEnv and resolved from the
// environment at use time.
type Credentials struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"passwordEnv,omitempty"`
}

// ResolvePassword returns the configured password, consulting the named
// environment variable when no inline value is set.
func (c Credentials) ResolvePassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}

	if c.PasswordEnv != "" {
		if v := os.Getenv(c.PasswordEnv); v != "" {
			return v, nil
		}

		return "", fmt.Errorf("environment variable %s not set", c.PasswordEnv)
	}

	return "", fmt.Errorf("no password or passwordEnv configured")
}

// Instance describes one form-platform deployment.
type Instance struct {
	Name        string      `yaml:"name"`
	URL         string      `yaml:"url"`
	Credentials Credentials `yaml:"credentials"`
}

// BaseURL returns the API base for this instance.
func (i Instance) BaseURL() string {
	return i.URL + "/jw"
}

// InstancesFile is the root of a YAML instances document.
type InstancesFile struct {
	Instances map[string]Instance `yaml:"instances"`
}

// LoadInstances reads an instances document from the given path.
func LoadInstances(path string) (*InstancesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instances file %s: %w", path, err)
	}

	var f InstancesFile

	err = yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("parsing instances file %s: %w", path, err)
	}

	for name, inst := range f.Instances {
		if inst.Name == "" {
			inst.Name = name
			f.Instances[name] = inst
		}
	}

	return &f, nil
}

// Lookup returns the named instance.
func (f *InstancesFile) Lookup(name string) (Instance, error) {
	inst, ok := f.Instances[name]
	if !ok {
		return Instance{}, fmt.Errorf("instance %q not configured", name)
	}

	if inst.URL == "" {
		return Instance{}, fmt.Errorf("instance %q has no url", name)
	}

	return inst, nil
}
